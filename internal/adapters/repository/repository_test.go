package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/okian/crema/internal/adapters/repository"
	"github.com/okian/crema/internal/domain/model"
	"github.com/okian/crema/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func avail(id string, avg float64, count int) model.Item {
	item := model.Item{ID: id, Name: id, Available: true}
	if count > 0 {
		item.Quality = model.Quality{Avg: &avg, Count: count}
	}
	return item
}

func TestMemoryCatalog(t *testing.T) {
	ctx := context.Background()

	Convey("Given a catalog with rated and unrated items", t, func() {
		cat := repository.NewMemoryCatalog()
		So(cat.Put(ctx, avail("arabica", 4.5, 10)), ShouldBeNil)
		So(cat.Put(ctx, avail("blend", 3.0, 4)), ShouldBeNil)
		So(cat.Put(ctx, avail("geisha", 4.8, 2)), ShouldBeNil)
		So(cat.Put(ctx, avail("new", 0, 0)), ShouldBeNil)
		hidden := avail("hidden", 5.0, 50)
		hidden.Available = false
		So(cat.Put(ctx, hidden), ShouldBeNil)

		Convey("When asking for the quality top list", func() {
			top, err := cat.TopByQuality(ctx, 3)

			Convey("Then it is ordered by avg desc and skips unavailable items", func() {
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 3)
				So(top[0].ID, ShouldEqual, "geisha")
				So(top[1].ID, ShouldEqual, "arabica")
				So(top[2].ID, ShouldEqual, "blend")
			})
		})

		Convey("When two items share an average", func() {
			So(cat.Put(ctx, avail("tied-b", 4.5, 3)), ShouldBeNil)
			top, err := cat.TopByQuality(ctx, 10)
			So(err, ShouldBeNil)

			Convey("Then the higher rating count ranks first", func() {
				var pos = map[string]int{}
				for i, it := range top {
					pos[it.ID] = i
				}
				So(pos["arabica"], ShouldBeLessThan, pos["tied-b"])
			})
		})

		Convey("When replacing an item", func() {
			updated := avail("arabica", 0, 0)
			updated.Name = "Arabica Especial"
			So(cat.Put(ctx, updated), ShouldBeNil)
			got, err := cat.Get(ctx, "arabica")
			So(err, ShouldBeNil)

			Convey("Then the stored quality statistic survives the replace", func() {
				So(got.Name, ShouldEqual, "Arabica Especial")
				So(got.QualityAvg(), ShouldEqual, 4.5)
				So(got.Quality.Count, ShouldEqual, 10)
			})
		})

		Convey("When fetching an unknown id", func() {
			_, err := cat.Get(ctx, "nope")
			So(errors.Is(err, repository.ErrItemNotFound), ShouldBeTrue)
		})

		Convey("When listing with a search filter", func() {
			res, err := cat.List(ctx, repository.ListFilter{Search: "GEI"})
			So(err, ShouldBeNil)
			So(res.Total, ShouldEqual, 1)
			So(res.Items[0].ID, ShouldEqual, "geisha")
		})

		Convey("When listing with paging", func() {
			res, err := cat.List(ctx, repository.ListFilter{Page: 2, Limit: 2})
			So(err, ShouldBeNil)
			So(res.Page, ShouldEqual, 2)
			So(res.Total, ShouldEqual, 5)
			So(res.Pages, ShouldEqual, 3)
			So(len(res.Items), ShouldEqual, 2)
		})
	})
}

func TestShardedReviews(t *testing.T) {
	ctx := context.Background()

	Convey("Given a catalog item and its review store", t, func() {
		cat := repository.NewMemoryCatalog()
		So(cat.Put(ctx, avail("i", 0, 0)), ShouldBeNil)
		reviews := repository.NewShardedReviews(cat, repository.WithShardCount(4))

		Convey("When two raters review the item", func() {
			_, _, err := reviews.Upsert(ctx, "i", "u1", 5, "great")
			So(err, ShouldBeNil)
			_, q, err := reviews.Upsert(ctx, "i", "u2", 3, "fine")
			So(err, ShouldBeNil)

			Convey("Then the aggregate is the mean of both", func() {
				So(*q.Avg, ShouldEqual, 4.0)
				So(q.Count, ShouldEqual, 2)
			})

			Convey("And the statistic is written back to the catalog", func() {
				item, err := cat.Get(ctx, "i")
				So(err, ShouldBeNil)
				So(item.QualityAvg(), ShouldEqual, 4.0)
				So(item.Quality.Count, ShouldEqual, 2)
			})
		})

		Convey("When a rater supersedes their own review", func() {
			first, _, err := reviews.Upsert(ctx, "i", "u1", 5, "great")
			So(err, ShouldBeNil)
			_, _, err = reviews.Upsert(ctx, "i", "u2", 3, "fine")
			So(err, ShouldBeNil)
			second, q, err := reviews.Upsert(ctx, "i", "u1", 1, "changed my mind")
			So(err, ShouldBeNil)

			Convey("Then the event is replaced in place, not appended", func() {
				So(second.ID, ShouldEqual, first.ID)
				So(*q.Avg, ShouldEqual, 2.0)
				So(q.Count, ShouldEqual, 2)
				So(reviews.Count(ctx), ShouldEqual, 2)
			})
		})

		Convey("When an out-of-range score arrives", func() {
			_, _, err := reviews.Upsert(ctx, "i", "u1", 5, "")
			So(err, ShouldBeNil)
			_, _, err = reviews.Upsert(ctx, "i", "u3", 6, "")

			Convey("Then it is rejected and the aggregate is untouched", func() {
				So(errors.Is(err, rating.ErrInvalidScore), ShouldBeTrue)
				item, gerr := cat.Get(ctx, "i")
				So(gerr, ShouldBeNil)
				So(item.QualityAvg(), ShouldEqual, 5.0)
				So(item.Quality.Count, ShouldEqual, 1)
			})
		})

		Convey("When many raters upsert the same item concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(n int) {
					defer wg.Done()
					rater := string(rune('a' + n))
					_, _, _ = reviews.Upsert(ctx, "i", rater, 1+n%5, "")
				}(i)
			}
			wg.Wait()

			Convey("Then no update is lost", func() {
				item, err := cat.Get(ctx, "i")
				So(err, ShouldBeNil)
				So(item.Quality.Count, ShouldEqual, 20)
				So(reviews.Count(ctx), ShouldEqual, 20)
			})
		})

		Convey("When listing a rater's events", func() {
			So(cat.Put(ctx, avail("j", 0, 0)), ShouldBeNil)
			_, _, err := reviews.Upsert(ctx, "j", "u1", 4, "")
			So(err, ShouldBeNil)
			_, _, err = reviews.Upsert(ctx, "i", "u1", 5, "")
			So(err, ShouldBeNil)

			events, err := reviews.EventsFor(ctx, "u1")
			So(err, ShouldBeNil)

			Convey("Then every live event is returned in item order", func() {
				So(len(events), ShouldEqual, 2)
				So(events[0].ItemID, ShouldEqual, "i")
				So(events[1].ItemID, ShouldEqual, "j")
			})
		})
	})
}
