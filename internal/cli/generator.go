package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

var eventTypes = []string{"wedding", "corporate", "gala", "private", "other"}

var vendorCategories = []string{"catering", "florals", "photography", "av", "rentals", "other"}

var contactMessages = []string{
	"Is the venue available for a reception on the weekend of %s?",
	"Could you send over your pricing and package options for %s?",
	"We toured last month and have a problem with our reservation dates.",
	"What does a Saturday evening rental cost during peak season?",
	"I would like to schedule a tour for my %s next month.",
}

// GeneratePayload builds a schema-valid payload for the endpoint. Free-text
// fields are composed from templates so contact categorization stays
// exercised across its keyword buckets.
func GeneratePayload(endpoint string) (map[string]any, error) {
	switch endpoint {
	case "contact":
		template := contactMessages[gofakeit.Number(0, len(contactMessages)-1)]
		message := template
		if strings.Contains(template, "%s") {
			message = fmt.Sprintf(template, gofakeit.MonthString())
		}
		return map[string]any{
			"name":    fakeName(),
			"email":   gofakeit.Email(),
			"phone":   fakePhone(),
			"message": message,
		}, nil
	case "quote":
		return map[string]any{
			"name":       fakeName(),
			"email":      gofakeit.Email(),
			"eventDate":  time.Now().AddDate(0, gofakeit.Number(1, 12), 0).Format("2006-01-02"),
			"guestCount": float64(gofakeit.Number(20, 400)),
			"budget":     float64(gofakeit.Number(8000, 120000)),
			"eventType":  eventTypes[gofakeit.Number(0, len(eventTypes)-1)],
			"details":    gofakeit.Sentence(12),
		}, nil
	case "vendor":
		return map[string]any{
			"company":     gofakeit.Company(),
			"contactName": fakeName(),
			"email":       gofakeit.Email(),
			"category":    vendorCategories[gofakeit.Number(0, len(vendorCategories)-1)],
			"pitch":       gofakeit.Sentence(15),
		}, nil
	case "review":
		return map[string]any{
			"name":   fakeName(),
			"email":  gofakeit.Email(),
			"rating": float64(gofakeit.Number(1, 5)),
			"title":  gofakeit.Sentence(4),
			"body":   gofakeit.Sentence(20),
			"terms":  true,
		}, nil
	case "newsletter":
		return map[string]any{
			"email":   gofakeit.Email(),
			"name":    fakeName(),
			"consent": true,
		}, nil
	default:
		return nil, fmt.Errorf("unknown endpoint: %s", endpoint)
	}
}

// fakeName avoids generated names with characters the name pattern rejects.
func fakeName() string {
	return gofakeit.FirstName() + " " + gofakeit.LastName()
}

func fakePhone() string {
	return fmt.Sprintf("%d%d%d-%d%d%d-%d%d%d%d",
		gofakeit.Number(2, 9), gofakeit.Number(0, 9), gofakeit.Number(0, 9),
		gofakeit.Number(2, 9), gofakeit.Number(0, 9), gofakeit.Number(0, 9),
		gofakeit.Number(0, 9), gofakeit.Number(0, 9), gofakeit.Number(0, 9), gofakeit.Number(0, 9))
}
