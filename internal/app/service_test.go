package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	service "github.com/okian/crema/internal/app"
	"github.com/okian/crema/internal/domain/model"
	"github.com/okian/crema/internal/domain/preference"
	"github.com/okian/crema/internal/domain/rating"
	"github.com/okian/crema/internal/domain/weather"
	"github.com/okian/crema/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func f(v float64) *float64 { return &v }

type fixedWeather struct {
	reading *weather.Reading
	err     error
}

func (w *fixedWeather) Current(ctx context.Context, city string) (*weather.Reading, error) {
	return w.reading, w.err
}

func seedCatalog(ctx context.Context, svc *service.Service) {
	items := []model.Item{
		{
			ID: "cold-brew-1", Name: "Cold Brew Bottle", Kind: model.KindDrink,
			Roast: model.RoastLight, TempAffinity: model.ServeCold,
			BrewMethods: []string{"cold-brew"},
			Sensory:     model.SensoryProfile{Acidity: f(3.5), Sweetness: f(3), Bitterness: f(1.5), Body: f(2), Aroma: f(3)},
			Available:   true,
		},
		{
			ID: "mocha-1", Name: "Dark Mocha", Kind: model.KindDrink,
			Roast: model.RoastDark, TempAffinity: model.ServeHot,
			BrewMethods: []string{"espresso", "steam-milk"},
			Allergens:   []string{"milk"},
			Sensory:     model.SensoryProfile{Acidity: f(1), Sweetness: f(4), Bitterness: f(4), Body: f(4.5), Aroma: f(4)},
			Price:       &model.Price{Currency: "EUR", Amount: 5.5},
			Available:   true,
		},
		{
			ID: "beans-citrus", Name: "Citrus Beans", Kind: model.KindBean,
			Roast:        model.RoastLight,
			TastingNotes: []string{"citrus", "floral"},
			BrewMethods:  []string{"v60", "pour-over"},
			Sensory:      model.SensoryProfile{Acidity: f(4.5), Sweetness: f(3), Bitterness: f(1), Body: f(2), Aroma: f(4)},
			Price:        &model.Price{Currency: "EUR", Amount: 14},
			Available:    true,
		},
		{
			ID: "beans-choc", Name: "Chocolate Beans", Kind: model.KindBean,
			Roast:        model.RoastDark,
			TastingNotes: []string{"chocolate", "comfort"},
			BrewMethods:  []string{"espresso", "mokapot"},
			Sensory:      model.SensoryProfile{Acidity: f(1.5), Sweetness: f(3.5), Bitterness: f(4), Body: f(4.5), Aroma: f(4.5)},
			Price:        &model.Price{Currency: "EUR", Amount: 12},
			Available:    true,
		},
		{
			ID: "retired", Name: "Retired Roast", Kind: model.KindBean,
			Roast: model.RoastMedium, Available: false,
		},
	}
	for _, item := range items {
		So(svc.PutItem(ctx, item), ShouldBeNil)
	}
}

func newStarted(ctx context.Context, opts ...service.Option) *service.Service {
	svc := service.New(opts...)
	So(svc.Start(ctx), ShouldBeNil)
	return svc
}

func TestRecommendByContext(t *testing.T) {
	ctx := context.Background()
	noon := func() time.Time { return time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC) }

	Convey("Given a seeded service with a hot-day upstream", t, func() {
		svc := newStarted(ctx,
			service.WithWeather(&fixedWeather{reading: &weather.Reading{TempC: f(30)}}),
			service.WithClock(noon),
		)
		defer svc.Stop()
		seedCatalog(ctx, svc)

		Convey("When recommending by context", func() {
			rec, err := svc.RecommendByContext(ctx, "Lisboa,PT", "", 0)

			Convey("Then the context is hot and no fallback is used", func() {
				So(err, ShouldBeNil)
				So(rec.UsedFallback, ShouldBeFalse)
				So(rec.Context, ShouldNotBeNil)
				So(rec.Context.TempBucket, ShouldEqual, model.BucketHot)
			})

			Convey("Then the cold brew ranks first", func() {
				So(len(rec.Items), ShouldBeGreaterThan, 0)
				So(rec.Items[0].ID, ShouldEqual, "cold-brew-1")
			})

			Convey("Then unavailable items never appear", func() {
				for _, item := range rec.Items {
					So(item.ID, ShouldNotEqual, "retired")
				}
			})
		})
	})

	Convey("Given a service whose weather upstream is unavailable", t, func() {
		svc := newStarted(ctx, service.WithClock(noon))
		defer svc.Stop()
		seedCatalog(ctx, svc)
		rate := func(item, rater string, score int) {
			_, _, err := svc.UpsertReview(ctx, item, rater, score, "")
			So(err, ShouldBeNil)
		}
		rate("mocha-1", "u1", 5)
		rate("cold-brew-1", "u1", 3)

		Convey("When recommending by context", func() {
			rec, err := svc.RecommendByContext(ctx, "", "", 0)

			Convey("Then the result is a flagged quality-ranked fallback", func() {
				So(err, ShouldBeNil)
				So(rec.UsedFallback, ShouldBeTrue)
				So(rec.FallbackReason, ShouldEqual, service.FallbackNoWeather)
				So(len(rec.Items), ShouldBeGreaterThan, 0)
				So(rec.Items[0].ID, ShouldEqual, "mocha-1")
			})

			Convey("And the default classification still travels in the response", func() {
				So(rec.Context, ShouldNotBeNil)
				So(rec.Context.TempBucket, ShouldEqual, model.BucketMild)
				So(rec.Context.Rainy, ShouldBeFalse)
			})
		})
	})

	Convey("Given an upstream reading that lacks a temperature", t, func() {
		svc := newStarted(ctx,
			service.WithWeather(&fixedWeather{reading: &weather.Reading{Conditions: "Clouds"}}),
			service.WithClock(noon),
		)
		defer svc.Stop()
		seedCatalog(ctx, svc)

		Convey("When recommending by context", func() {
			rec, err := svc.RecommendByContext(ctx, "", "", 0)

			Convey("Then the defaulted classification is not a fallback", func() {
				So(err, ShouldBeNil)
				So(rec.UsedFallback, ShouldBeFalse)
				So(rec.Context.TempBucket, ShouldEqual, model.BucketMild)
			})
		})
	})
}

func TestRecommendByHistory(t *testing.T) {
	ctx := context.Background()

	Convey("Given a seeded service with review history", t, func() {
		svc := newStarted(ctx)
		defer svc.Stop()
		seedCatalog(ctx, svc)

		rate := func(item, rater string, score int) {
			_, _, err := svc.UpsertReview(ctx, item, rater, score, "")
			So(err, ShouldBeNil)
		}

		Convey("When a rater loves bright coffee", func() {
			rate("beans-citrus", "ana", 5)
			rate("cold-brew-1", "ana", 4)
			rate("beans-choc", "ana", 2)

			rec, err := svc.RecommendByHistory(ctx, "ana", nil, 0)

			Convey("Then the result is personalized, not a fallback", func() {
				So(err, ShouldBeNil)
				So(rec.UsedFallback, ShouldBeFalse)
				So(rec.Preference, ShouldNotBeNil)
			})

			Convey("Then bright items outrank the dark ones", func() {
				pos := map[string]int{}
				for i, item := range rec.Items {
					pos[item.ID] = i
				}
				So(pos["beans-citrus"], ShouldBeLessThan, pos["beans-choc"])
			})
		})

		Convey("When explicit constraints exclude milk", func() {
			rate("mocha-1", "bo", 5)

			rec, err := svc.RecommendByHistory(ctx, "bo", &preference.Explicit{
				ExcludeAllergens: []string{"milk"},
			}, 0)

			Convey("Then no milk item appears despite the history", func() {
				So(err, ShouldBeNil)
				So(rec.UsedFallback, ShouldBeFalse)
				for _, item := range rec.Items {
					So(item.ID, ShouldNotEqual, "mocha-1")
				}
			})
		})

		Convey("When a price ceiling filters the field", func() {
			rate("beans-citrus", "cy", 5)

			rec, err := svc.RecommendByHistory(ctx, "cy", &preference.Explicit{
				MaxPrice: f(13),
			}, 0)

			Convey("Then items above the ceiling never appear", func() {
				So(err, ShouldBeNil)
				for _, item := range rec.Items {
					if item.Price != nil {
						So(item.Price.Amount, ShouldBeLessThanOrEqualTo, 13)
					}
				}
			})
		})

		Convey("When a rater has no events and no explicit preference", func() {
			rate("beans-citrus", "u1", 5)
			rate("beans-choc", "u2", 3)

			rec, err := svc.RecommendByHistory(ctx, "stranger", nil, 0)

			Convey("Then a flagged quality-ranked list comes back", func() {
				So(err, ShouldBeNil)
				So(rec.UsedFallback, ShouldBeTrue)
				So(rec.FallbackReason, ShouldEqual, service.FallbackNoPrefs)
				So(len(rec.Items), ShouldBeGreaterThan, 0)
				So(rec.Items[0].ID, ShouldEqual, "beans-citrus")
			})
		})

		Convey("When a rater only ever rated below the positive threshold", func() {
			rate("beans-choc", "meh", 2)
			rate("mocha-1", "meh", 3)

			rec, err := svc.RecommendByHistory(ctx, "meh", nil, 0)

			Convey("Then the builder reports no derivable preference", func() {
				So(err, ShouldBeNil)
				So(rec.UsedFallback, ShouldBeTrue)
			})
		})
	})

	Convey("Given an empty catalog", t, func() {
		svc := newStarted(ctx)
		defer svc.Stop()

		Convey("When recommending without history", func() {
			rec, err := svc.RecommendByHistory(ctx, "nobody", nil, 0)

			Convey("Then the fallback is an empty flagged list, not an error", func() {
				So(err, ShouldBeNil)
				So(rec.UsedFallback, ShouldBeTrue)
				So(rec.Items, ShouldBeEmpty)
			})
		})
	})
}

func TestQualityFallbackOrdering(t *testing.T) {
	ctx := context.Background()

	Convey("Given three rated items and no history", t, func() {
		svc := newStarted(ctx)
		defer svc.Stop()

		put := func(id string, avg float64, count int) {
			So(svc.PutItem(ctx, model.Item{
				ID: id, Name: id, Kind: model.KindBean, Available: true,
				Quality: model.Quality{Avg: &avg, Count: count},
			}), ShouldBeNil)
		}
		put("item-45", 4.5, 9)
		put("item-30", 3.0, 4)
		put("item-48", 4.8, 7)

		Convey("When recommending by history for an unknown rater", func() {
			rec, err := svc.RecommendByHistory(ctx, "nobody", nil, 0)

			Convey("Then the list is quality-ordered and flagged", func() {
				So(err, ShouldBeNil)
				So(rec.UsedFallback, ShouldBeTrue)
				So(len(rec.Items), ShouldEqual, 3)
				So(rec.Items[0].ID, ShouldEqual, "item-48")
				So(rec.Items[1].ID, ShouldEqual, "item-45")
				So(rec.Items[2].ID, ShouldEqual, "item-30")
			})
		})
	})
}

func TestUpsertReview(t *testing.T) {
	ctx := context.Background()

	Convey("Given a seeded service", t, func() {
		svc := newStarted(ctx)
		defer svc.Stop()
		seedCatalog(ctx, svc)

		Convey("When upserting ratings from two raters", func() {
			_, _, err := svc.UpsertReview(ctx, "mocha-1", "u1", 5, "rich")
			So(err, ShouldBeNil)
			_, q, err := svc.UpsertReview(ctx, "mocha-1", "u2", 3, "")
			So(err, ShouldBeNil)

			Convey("Then the aggregate matches the mean", func() {
				So(*q.Avg, ShouldEqual, 4.0)
				So(q.Count, ShouldEqual, 2)
			})

			Convey("And a superseding rating moves the mean, not the count", func() {
				_, q, err := svc.UpsertReview(ctx, "mocha-1", "u1", 1, "burnt")
				So(err, ShouldBeNil)
				So(*q.Avg, ShouldEqual, 2.0)
				So(q.Count, ShouldEqual, 2)
			})
		})

		Convey("When the score is out of range", func() {
			_, _, err := svc.UpsertReview(ctx, "mocha-1", "u1", 0, "")

			Convey("Then it is rejected with the validation kind", func() {
				So(errors.Is(err, rating.ErrInvalidScore), ShouldBeTrue)
			})
		})

		Convey("When the item does not exist", func() {
			_, _, err := svc.UpsertReview(ctx, "ghost", "u1", 4, "")
			So(err, ShouldNotBeNil)
		})
	})
}
