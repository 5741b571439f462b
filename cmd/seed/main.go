package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"fvivu/internal/auth"
	"fvivu/internal/bookings"
	"fvivu/internal/shared/config"
	"fvivu/internal/shared/database"
	"fvivu/internal/tours"
	"fvivu/internal/users"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

// seedPassword is shared by every seeded account
const seedPassword = "Fvivu@2026"

type Seeder struct {
	db  *database.DB
	now time.Time
}

func main() {
	fmt.Println("🌱 Starting Fvivu database seeder...")

	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db.PostgreSQL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	seeder := &Seeder{db: db, now: time.Now().UTC()}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(context.Background()); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	fmt.Printf("\n✅ Seeding completed. Every account uses the password %q\n", seedPassword)
}

// CleanDatabase truncates all tables, children first
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"payment_events",
		"bookings",
		"tour_start_dates",
		"tours",
		"users",
	}

	return s.db.PostgreSQL.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			fmt.Printf("  Truncating table: %s\n", table)
			if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
				return fmt.Errorf("failed to truncate table %s: %w", table, err)
			}
		}
		return nil
	})
}

// SeedAll seeds all required data
func (s *Seeder) SeedAll(ctx context.Context) error {
	accounts, err := s.SeedUsers()
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	seeded, err := s.SeedTours(accounts)
	if err != nil {
		return fmt.Errorf("failed to seed tours: %w", err)
	}

	if err := s.SeedBookings(accounts, seeded); err != nil {
		return fmt.Errorf("failed to seed bookings: %w", err)
	}

	if s.db.Redis != nil {
		if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
			log.Printf("Warning: failed to clear Redis cache: %v", err)
		}
	}
	return nil
}

type seedAccounts struct {
	admin     *users.User
	partners  []*users.User
	customers []*users.User
}

func (s *Seeder) SeedUsers() (*seedAccounts, error) {
	fmt.Println("  Creating users...")

	hashed, err := auth.HashPassword(seedPassword)
	if err != nil {
		return nil, err
	}

	mk := func(name, email string, role users.Role) *users.User {
		return &users.User{Name: name, Email: email, Password: hashed, Role: role, Active: true, EmailConfirmed: true}
	}

	accounts := &seedAccounts{
		admin: mk("Fvivu Admin", "admin@fvivu.vn", users.RoleAdmin),
		partners: []*users.User{
			mk("Saigon Trails", "partner.saigon@fvivu.vn", users.RolePartner),
			mk("Northern Peaks Travel", "partner.north@fvivu.vn", users.RolePartner),
		},
		customers: []*users.User{
			mk("Nguyen Van An", "an@example.com", users.RoleCustomer),
			mk("Tran Thi Binh", "binh@example.com", users.RoleCustomer),
			mk("Le Minh Chau", "chau@example.com", users.RoleCustomer),
		},
	}

	all := append([]*users.User{accounts.admin}, accounts.partners...)
	all = append(all, accounts.customers...)
	if err := s.db.PostgreSQL.Create(&all).Error; err != nil {
		return nil, err
	}
	fmt.Printf("  Created %d users\n", len(all))
	return accounts, nil
}

type tourSeed struct {
	name, summary, description string
	duration, maxGroupSize     int
	price                      int64
	partner                    int
	status                     tours.Status
	firstDeparture             int // days from now
}

var tourSeeds = []tourSeed{
	{"Ha Long Bay Overnight Cruise", "Two days among the limestone karsts of Ha Long Bay",
		"Board a traditional junk, kayak through hidden lagoons and sleep on the bay.",
		2, 16, 3200000, 1, tours.StatusActive, 14},
	{"Sapa Rice Terrace Trek", "Hike the terraces and stay with Hmong families",
		"Three days of trekking through Muong Hoa valley with homestays in local villages.",
		3, 12, 2800000, 1, tours.StatusActive, 21},
	{"Mekong Delta Discovery", "Floating markets, orchards and river life",
		"Explore Cai Rang floating market by boat and cycle between fruit orchards.",
		2, 20, 1900000, 0, tours.StatusActive, 7},
	{"Hoi An Lantern Heritage Walk", "Old town, tailors and lantern making",
		"Walk the ancient town, learn to make lanterns and cook a Quang noodle lunch.",
		2, 10, 1500000, 0, tours.StatusActive, 10},
	{"Phong Nha Cave Expedition", "Caving and jungle camping in Phong Nha",
		"Four days of caving, river crossings and camping inside the national park.",
		4, 8, 7500000, 1, tours.StatusPending, 30},
	{"Da Lat Highland Cycling", "Pine forests, coffee farms and waterfalls",
		"Cycle the highland roads around Da Lat with stops at coffee and flower farms.",
		3, 12, 2400000, 0, tours.StatusInactive, 18},
}

func (s *Seeder) SeedTours(accounts *seedAccounts) ([]*tours.Tour, error) {
	fmt.Println("  Creating tours...")

	seeded := make([]*tours.Tour, 0, len(tourSeeds))
	for _, seed := range tourSeeds {
		first := tours.NormalizeDay(s.now.AddDate(0, 0, seed.firstDeparture))
		schedule := make([]tours.StartDate, 0, 4)
		for i := 0; i < 4; i++ {
			schedule = append(schedule, tours.StartDate{StartDate: first.AddDate(0, 0, 14*i)})
		}

		tour := &tours.Tour{
			Name:         seed.name,
			Slug:         tours.Slugify(seed.name),
			Summary:      seed.summary,
			Description:  seed.description,
			Duration:     seed.duration,
			MaxGroupSize: seed.maxGroupSize,
			Price:        seed.price,
			Status:       seed.status,
			PartnerID:    accounts.partners[seed.partner].ID,
			StartDates:   schedule,
		}
		if err := s.db.PostgreSQL.Create(tour).Error; err != nil {
			return nil, fmt.Errorf("tour %q: %w", seed.name, err)
		}
		seeded = append(seeded, tour)
	}
	fmt.Printf("  Created %d tours\n", len(seeded))
	return seeded, nil
}

// SeedBookings fills the first departure of active tours, leaving one of
// them a seat short of full.
func (s *Seeder) SeedBookings(accounts *seedAccounts, seeded []*tours.Tour) error {
	fmt.Println("  Creating bookings...")

	var list []bookings.Booking
	for i, tour := range seeded {
		if tour.Status != tours.StatusActive {
			continue
		}
		departure := tour.StartDates[0].StartDate
		remaining := tour.MaxGroupSize / 2
		if i == 0 {
			remaining = 1
		}

		for j, customer := range accounts.customers {
			party := (tour.MaxGroupSize - remaining) / len(accounts.customers)
			if j == 0 {
				party += (tour.MaxGroupSize - remaining) % len(accounts.customers)
			}
			if party == 0 {
				continue
			}

			paidAt := s.now
			b := bookings.Booking{
				ID:             uuid.New(),
				TourID:         tour.ID,
				UserID:         customer.ID,
				StartDate:      departure,
				NumberOfPeople: party,
				Price:          tour.Price * int64(party),
				Status:         bookings.StatusConfirmed,
				PaidAt:         &paidAt,
			}
			if j == len(accounts.customers)-1 {
				b.Status = bookings.StatusPending
				b.PaidAt = nil
			}
			list = append(list, b)
		}
	}

	if len(list) == 0 {
		return nil
	}
	if err := s.db.PostgreSQL.Create(&list).Error; err != nil {
		return err
	}
	fmt.Printf("  Created %d bookings\n", len(list))
	return nil
}
