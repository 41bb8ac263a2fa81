package smoke

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"

	"github.com/google/uuid"

	"github.com/okian/crema/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	sensoryMax         = 5.0
)

var (
	roasts       = []string{"light", "medium", "dark"}
	temperatures = []string{"hot", "cold", "either"}
	notes        = []string{"citrus", "chocolate", "floral", "nutty", "caramel", "berry", "comfort"}
	brews        = []string{"espresso", "v60", "kalita", "cold-brew", "mokapot", "pour-over", "steam-milk", "iced"}
	roasteries   = []string{"North Roasters", "Alto Café", "Bica Works", "Terra Preta"}
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

func pickOne(options []string) string {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(options))))
	return options[n.Int64()]
}

func pickSome(options []string, max int) []string {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(max)))
	count := int(n.Int64()) + 1
	picked := make([]string, 0, count)
	seen := map[string]struct{}{}
	for len(picked) < count {
		opt := pickOne(options)
		if _, ok := seen[opt]; ok {
			continue
		}
		seen[opt] = struct{}{}
		picked = append(picked, opt)
	}
	return picked
}

// generateCatalog creates the requested number of catalog items with a
// spread of roasts, kinds and sensory profiles.
func generateCatalog(ctx context.Context, config *Config) []Item {
	logger.Get().Info(ctx, "generating catalog items", logger.Int("numItems", config.NumItems))

	items := make([]Item, config.NumItems)
	for i := range items {
		items[i] = generateSingleItem(i)
	}
	return items
}

func generateSingleItem(index int) Item {
	kind := "bean"
	if getRandomFloat() < 0.4 {
		kind = "drink"
	}

	item := Item{
		ID:        "coffee-" + strconv.Itoa(index) + "-" + uuid.NewString()[:8],
		Name:      "Sample " + strconv.Itoa(index),
		Roastery:  pickOne(roasteries),
		Kind:      kind,
		Roast:     pickOne(roasts),
		Available: getRandomFloat() > 0.1,
		Sensory: map[string]any{
			"acidity":    getRandomFloat() * sensoryMax,
			"sweetness":  getRandomFloat() * sensoryMax,
			"bitterness": getRandomFloat() * sensoryMax,
			"body":       getRandomFloat() * sensoryMax,
			"aroma":      getRandomFloat() * sensoryMax,
		},
		TastingNotes: pickSome(notes, 3),
		BrewMethods:  pickSome(brews, 3),
	}
	if kind == "drink" {
		item.Temperature = pickOne(temperatures)
		if getRandomFloat() < 0.3 {
			item.Allergens = []string{"milk"}
		}
	}
	return item
}

// generateReviews creates review payloads spread over the catalog and a
// fixed rater pool. Pairs are unique so the concurrent submission phase
// stays order-independent; supersede gets probed separately.
func generateReviews(ctx context.Context, config *Config, items []Item) []Review {
	logger.Get().Info(ctx, "generating reviews",
		logger.Int("numReviews", config.NumReviews),
		logger.Int("numRaters", config.NumRaters))

	raters := make([]string, config.NumRaters)
	for i := range raters {
		raters[i] = uuid.NewString()
	}

	reviews := make([]Review, 0, config.NumReviews)
	seen := map[string]struct{}{}
	for len(reviews) < config.NumReviews && len(seen) < len(items)*len(raters) {
		item := items[int(getRandomFloat()*float64(len(items)))%len(items)]
		rater := raters[int(getRandomFloat()*float64(len(raters)))%len(raters)]
		key := item.ID + "|" + rater
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		scoreN, _ := rand.Int(rand.Reader, big.NewInt(5))
		reviews = append(reviews, Review{
			ItemID:  item.ID,
			RaterID: rater,
			Score:   int(scoreN.Int64()) + 1,
		})
	}
	return reviews
}
