package tours

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

type Tour struct {
	ID              uuid.UUID   `json:"id" gorm:"primaryKey;type:uuid"`
	Name            string      `json:"name" gorm:"size:40;not null;uniqueIndex"`
	Slug            string      `json:"slug" gorm:"size:60;index"`
	Summary         string      `json:"summary" gorm:"size:255;not null"`
	Description     string      `json:"description" gorm:"type:text"`
	Duration        int         `json:"duration" gorm:"not null;check:duration >= 2"`
	MaxGroupSize    int         `json:"maxGroupSize" gorm:"not null;check:max_group_size >= 2"`
	Price           int64       `json:"price" gorm:"not null;check:price >= 0"`
	PriceDiscount   *int        `json:"priceDiscount,omitempty"`
	ImageCover      string      `json:"imageCover" gorm:"size:500"`
	Images          StringList  `json:"images" gorm:"type:text"`
	Status          Status      `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PartnerID       uuid.UUID   `json:"partnerId" gorm:"type:uuid;not null;index"`
	RatingsAverage  float64     `json:"ratingsAverage" gorm:"default:4.5"`
	RatingsQuantity int         `json:"ratingsQuantity" gorm:"default:0"`
	StartDates      []StartDate `json:"-" gorm:"foreignKey:TourID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

func (Tour) TableName() string {
	return "tours"
}

func (t *Tour) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Slug == "" {
		t.Slug = Slugify(t.Name)
	}
	return nil
}

// HasStartDate reports whether day is one of the scheduled departures
func (t *Tour) HasStartDate(day time.Time) bool {
	for _, sd := range t.StartDates {
		if SameDay(sd.StartDate, day) {
			return true
		}
	}
	return false
}

// SortedStartDates returns the schedule as ascending days
func (t *Tour) SortedStartDates() []time.Time {
	days := make([]time.Time, 0, len(t.StartDates))
	for _, sd := range t.StartDates {
		days = append(days, NormalizeDay(sd.StartDate))
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// StartDate is one departure of a tour; capacity is counted per row
type StartDate struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	TourID    uuid.UUID `json:"tourId" gorm:"type:uuid;not null;uniqueIndex:idx_tour_start_date"`
	StartDate time.Time `json:"startDate" gorm:"type:date;not null;uniqueIndex:idx_tour_start_date"`
}

func (StartDate) TableName() string {
	return "tour_start_dates"
}

func (s *StartDate) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.StartDate = NormalizeDay(s.StartDate)
	return nil
}

var slugTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lowercases name, strips diacritics and joins words with dashes
func Slugify(name string) string {
	name = strings.NewReplacer("đ", "d", "Đ", "d").Replace(name)
	plain, _, err := transform.String(slugTransformer, name)
	if err != nil {
		plain = name
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(plain) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
