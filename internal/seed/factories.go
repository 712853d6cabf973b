package seed

import (
	"fmt"
	"time"

	"shutterdesk/internal/models"
	"shutterdesk/internal/moderation"

	"github.com/brianvoe/gofakeit/v6"
)

var photoCategories = []string{
	"Wedding", "Portrait", "Newborn", "Maternity", "Street", "Architecture",
	"Food", "Fashion", "Wildlife", "Sports", "Concert", "Real Estate",
	"Product", "Aerial", "Event", "Boudoir", "Astro", "Underwater",
}

// Factory builds random payloads and identities.
type Factory struct {
	faker *gofakeit.Faker
}

// NewFactory creates a Factory. A zero seed picks a time-based one.
func NewFactory(randSeed int64) *Factory {
	if randSeed == 0 {
		randSeed = time.Now().UnixNano()
	}
	return &Factory{faker: gofakeit.New(randSeed)}
}

// Chance returns true with probability p.
func (f *Factory) Chance(p float64) bool {
	return f.faker.Float64Range(0, 1) < p
}

// Kind picks a content kind.
func (f *Factory) Kind() models.Kind {
	kinds := models.Kinds()
	return kinds[f.faker.Number(0, len(kinds)-1)]
}

// Photographer builds a photographer identity.
func (f *Factory) Photographer() moderation.Actor {
	return moderation.Actor{
		ID:   "ph-" + f.faker.UUID()[:8],
		Name: f.faker.Name(),
		Role: models.RolePhotographer,
	}
}

func (f *Factory) imageURL(seed string) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/1200/800", slug(seed))
}

// Payload builds a payload that passes validation for kind.
func (f *Factory) Payload(kind models.Kind) models.Payload {
	switch kind {
	case models.KindCity:
		city := f.faker.City()
		return models.Payload{
			Name:        city,
			Description: f.faker.Sentence(12),
			Image:       f.imageURL(city + "-" + f.faker.UUID()[:6]),
		}
	case models.KindStory:
		title := f.faker.Sentence(5)
		return models.Payload{
			Title:      title,
			Content:    f.faker.Paragraph(3, 4, 12, "\n\n"),
			CoverImage: f.imageURL("story-" + f.faker.UUID()[:6]),
			Location:   f.faker.City(),
			Date:       f.faker.DateRange(time.Now().AddDate(-2, 0, 0), time.Now()).Format("2006-01-02"),
		}
	case models.KindGallery:
		name := f.faker.RandomString(photoCategories) + " " + f.faker.Adjective()
		images := make([]string, f.faker.Number(2, 6))
		for i := range images {
			images[i] = f.imageURL(fmt.Sprintf("gallery-%s-%d", f.faker.UUID()[:6], i))
		}
		return models.Payload{
			Name:        name,
			Description: f.faker.Sentence(10),
			Images:      images,
		}
	default:
		name := f.faker.RandomString(photoCategories)
		return models.Payload{
			Name:        name,
			Description: f.faker.Sentence(10),
			Image:       f.imageURL(name + "-" + f.faker.UUID()[:6]),
		}
	}
}
