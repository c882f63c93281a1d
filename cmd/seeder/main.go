package main

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/mdhaarishussain/Yuvshiksha/internal/config"
	"github.com/mdhaarishussain/Yuvshiksha/internal/database"
	"github.com/mdhaarishussain/Yuvshiksha/internal/models"
	"github.com/mdhaarishussain/Yuvshiksha/pkg/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type seedTeacher struct {
	first, last string
	location    string
	pin         string
	years       int
	rate        int
	subjects    string
	days        []string
}

var teachers = []seedTeacher{
	{"Ananya", "Iyer", "Madhapur, Hyderabad, Telangana", "500081", 8, 600, `["Mathematics","Physics"]`, []string{"Monday", "Wednesday", "Friday"}},
	{"Rahul", "Verma", "Gachibowli, Hyderabad, Telangana", "500032", 5, 450, `["Chemistry"]`, []string{"Tuesday", "Thursday"}},
	{"Meera", "Nair", "Koramangala, Bangalore, Karnataka", "560034", 12, 800, `["Biology","Chemistry"]`, []string{"Saturday", "Sunday"}},
	{"Arjun", "Singh", "Andheri West, Mumbai, Maharashtra", "400053", 3, 400, `["English"]`, []string{"Monday", "Tuesday"}},
}

type seedStudent struct {
	first, last string
	location    string
	pin         string
	grade       string
}

var students = []seedStudent{
	{"Priya", "Sharma", "Kondapur, Hyderabad, Telangana", "500084", "10"},
	{"Karan", "Mehta", "Indiranagar, Bangalore, Karnataka", "560038", "12"},
}

func main() {
	config.LoadConfig()
	database.Connect()

	log.Println("Running migrations (just in case)...")
	if err := database.AutoMigrate(database.DB); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	log.Println("Clearing demo data...")
	if err := database.DB.Exec("TRUNCATE TABLE notifications, messages, teacher_availabilities, teacher_profiles, student_profiles, users RESTART IDENTITY CASCADE").Error; err != nil {
		log.Fatalf("Failed to truncate: %v", err)
	}

	var seeded []models.User
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		for _, t := range teachers {
			u, err := seedTeacherUser(tx, t)
			if err != nil {
				return err
			}
			seeded = append(seeded, u)
		}
		for _, s := range students {
			u, err := seedStudentUser(tx, s)
			if err != nil {
				return err
			}
			seeded = append(seeded, u)
		}
		return seedConversation(tx, seeded[len(seeded)-2], seeded[0])
	})
	if err != nil {
		log.Fatalf("Failed to seed: %v", err)
	}

	log.Println("Development tokens:")
	for _, u := range seeded {
		token, err := utils.GenerateToken(u.ID, string(u.Role))
		if err != nil {
			log.Fatalf("Failed to sign token: %v", err)
		}
		log.Printf("  %-8s %-14s %s\n    %s", u.Role, u.DisplayName(), u.ID, token)
	}

	log.Println("Seeding complete")
}

func newUser(first, last string, role models.Role) models.User {
	return models.User{
		ID:        uuid.New().String(),
		FirstName: first,
		LastName:  last,
		Email:     first + "." + last + "@yuvshiksha.dev",
		Avatar:    "https://api.dicebear.com/7.x/initials/svg?seed=" + first,
		Role:      role,
	}
}

func seedTeacherUser(tx *gorm.DB, t seedTeacher) (models.User, error) {
	u := newUser(t.first, t.last, models.RoleTeacher)
	if err := tx.Create(&u).Error; err != nil {
		return u, err
	}

	profile := models.TeacherProfile{
		UserID:          u.ID,
		Location:        t.location,
		PinCode:         t.pin,
		ExperienceYears: t.years,
		IsListed:        true,
		HourlyRate:      t.rate,
		Subjects:        datatypes.JSON(t.subjects),
	}
	if err := tx.Create(&profile).Error; err != nil {
		return u, err
	}

	for _, day := range t.days {
		slot := models.TeacherAvailability{TeacherID: u.ID, Day: day, StartTime: "16:00", EndTime: "20:00"}
		if err := tx.Create(&slot).Error; err != nil {
			return u, err
		}
	}
	log.Printf("Seeded teacher %s (%s)", u.DisplayName(), t.location)
	return u, nil
}

func seedStudentUser(tx *gorm.DB, s seedStudent) (models.User, error) {
	u := newUser(s.first, s.last, models.RoleStudent)
	if err := tx.Create(&u).Error; err != nil {
		return u, err
	}
	profile := models.StudentProfile{UserID: u.ID, Location: s.location, PinCode: s.pin, Grade: s.grade}
	if err := tx.Create(&profile).Error; err != nil {
		return u, err
	}
	log.Printf("Seeded student %s (%s)", u.DisplayName(), s.location)
	return u, nil
}

func seedConversation(tx *gorm.DB, student, teacher models.User) error {
	start := time.Now().Add(-2 * time.Hour)
	lines := []struct {
		from, to models.User
		content  string
	}{
		{student, teacher, "Hi! Are you available for a maths session this week?"},
		{teacher, student, "Yes, Wednesday 5 PM works. Which chapter?"},
		{student, teacher, "Quadratic equations, please."},
	}
	for i, l := range lines {
		m := models.Message{
			SenderID:    l.from.ID,
			RecipientID: l.to.ID,
			Content:     l.content,
			CreatedAt:   start.Add(time.Duration(i) * 10 * time.Minute),
			IsRead:      i < len(lines)-1,
		}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
	}
	return nil
}
