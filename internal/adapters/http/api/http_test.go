package api_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/crema/internal/adapters/http/api"
	service "github.com/okian/crema/internal/app"
	"github.com/okian/crema/pkg/logger"
)

func init() {
	_ = logger.Init()
}

func newTestServer(t *testing.T, opts ...api.ServerOption) (*httptest.Server, *service.Service) {
	t.Helper()
	ctx := context.Background()
	svc := service.New()
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)

	ts := httptest.NewServer(api.NewServer(svc, 50, opts...).Routes())
	t.Cleanup(ts.Close)
	return ts, svc
}

func doJSON(method, url string, body any) (*http.Response, map[string]any, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return resp, nil, nil
	}
	return resp, decoded, nil
}

func putCoffee(url, id string, body map[string]any) (*http.Response, map[string]any, error) {
	return doJSON(http.MethodPut, fmt.Sprintf("%s/api/v1/coffees/%s", url, id), body)
}

func TestCatalogEndpoints(t *testing.T) {
	Convey("Given a running API server", t, func() {
		ts, _ := newTestServer(t)

		Convey("When an item is created via PUT", func() {
			resp, body, err := putCoffee(ts.URL, "beans-1", map[string]any{
				"name":      "House Blend",
				"kind":      "bean",
				"roast":     "medium",
				"available": true,
			})

			Convey("Then the stored item comes back", func() {
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["id"], ShouldEqual, "beans-1")
				So(body["name"], ShouldEqual, "House Blend")
			})

			Convey("And a GET returns the same item", func() {
				resp, body, err := doJSON(http.MethodGet, ts.URL+"/api/v1/coffees/beans-1", nil)
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["name"], ShouldEqual, "House Blend")
			})

			Convey("And the listing finds it by kind", func() {
				resp, body, err := doJSON(http.MethodGet, ts.URL+"/api/v1/coffees?kind=bean", nil)
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["total"], ShouldEqual, 1)
			})
		})

		Convey("When a PUT carries an invalid kind", func() {
			resp, body, err := putCoffee(ts.URL, "bad-1", map[string]any{
				"name": "Mystery",
				"kind": "tea",
			})

			Convey("Then the request is rejected", func() {
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(body["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When an unknown item is fetched", func() {
			resp, body, err := doJSON(http.MethodGet, ts.URL+"/api/v1/coffees/ghost", nil)

			Convey("Then the response is a 404", func() {
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
				So(body["code"], ShouldEqual, "not_found")
			})
		})
	})
}

func TestReviewEndpoints(t *testing.T) {
	Convey("Given a server with one catalog item", t, func() {
		ts, _ := newTestServer(t)
		_, _, err := putCoffee(ts.URL, "beans-1", map[string]any{
			"name": "House Blend", "kind": "bean", "available": true,
		})
		So(err, ShouldBeNil)

		reviewsURL := ts.URL + "/api/v1/coffees/beans-1/reviews"

		Convey("When two raters post reviews", func() {
			resp, body, err := doJSON(http.MethodPost, reviewsURL, map[string]any{"rater_id": "u1", "score": 5})
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)

			resp2, body2, err := doJSON(http.MethodPost, reviewsURL, map[string]any{"rater_id": "u2", "score": 3})
			So(err, ShouldBeNil)
			So(resp2.StatusCode, ShouldEqual, http.StatusCreated)

			Convey("Then each answer carries the running aggregate", func() {
				q1 := body["quality"].(map[string]any)
				So(q1["avg"], ShouldEqual, 5.0)
				q2 := body2["quality"].(map[string]any)
				So(q2["avg"], ShouldEqual, 4.0)
				So(q2["count"], ShouldEqual, 2)
			})

			Convey("And a repeat review supersedes, not appends", func() {
				resp, body, err := doJSON(http.MethodPost, reviewsURL, map[string]any{"rater_id": "u1", "score": 1})
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				q := body["quality"].(map[string]any)
				So(q["avg"], ShouldEqual, 2.0)
				So(q["count"], ShouldEqual, 2)
			})

			Convey("And the listing returns both reviews", func() {
				req, err := http.NewRequest(http.MethodGet, reviewsURL, nil)
				So(err, ShouldBeNil)
				resp, err := http.DefaultClient.Do(req)
				So(err, ShouldBeNil)
				defer func() { _ = resp.Body.Close() }()
				var reviews []map[string]any
				So(json.NewDecoder(resp.Body).Decode(&reviews), ShouldBeNil)
				So(len(reviews), ShouldEqual, 2)
			})
		})

		Convey("When the score is out of range", func() {
			resp, _, err := doJSON(http.MethodPost, reviewsURL, map[string]any{"rater_id": "u1", "score": 6})
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the rater is missing", func() {
			resp, _, err := doJSON(http.MethodPost, reviewsURL, map[string]any{"score": 4})
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the item does not exist", func() {
			resp, _, err := doJSON(http.MethodPost, ts.URL+"/api/v1/coffees/ghost/reviews",
				map[string]any{"rater_id": "u1", "score": 4})
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestRecommendationEndpoints(t *testing.T) {
	Convey("Given a server with a small catalog", t, func() {
		ts, _ := newTestServer(t)
		for i, name := range []string{"Bright Beans", "Dark Beans"} {
			_, _, err := putCoffee(ts.URL, fmt.Sprintf("beans-%d", i), map[string]any{
				"name": name, "kind": "bean", "available": true,
			})
			So(err, ShouldBeNil)
		}

		Convey("When weather recommendations are requested without an upstream", func() {
			resp, body, err := doJSON(http.MethodGet, ts.URL+"/api/v1/recommendations/weather", nil)

			Convey("Then the answer is a flagged fallback list", func() {
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["used_fallback"], ShouldEqual, true)
				So(body["fallback_reason"], ShouldEqual, service.FallbackNoWeather)
			})
		})

		Convey("When a profile recommendation carries a desired target", func() {
			resp, body, err := doJSON(http.MethodPost, ts.URL+"/api/v1/recommendations/profile", map[string]any{
				"rater_id": "u1",
				"desired":  map[string]any{"acidity": 4.5, "bitterness": 1.0},
			})

			Convey("Then a personalized ranking comes back", func() {
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["used_fallback"], ShouldEqual, false)
				So(body["items"], ShouldNotBeNil)
			})
		})

		Convey("When a profile carries no signal at all", func() {
			resp, _, err := doJSON(http.MethodPost, ts.URL+"/api/v1/recommendations/profile", map[string]any{})
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a profile carries malformed fields", func() {
			reject := func(body map[string]any) {
				resp, out, err := doJSON(http.MethodPost, ts.URL+"/api/v1/recommendations/profile", body)
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(out["code"], ShouldEqual, "bad_request")
			}

			Convey("Then an unknown kind is rejected", func() {
				reject(map[string]any{"kind": "potato"})
			})

			Convey("Then an unknown roast is rejected", func() {
				reject(map[string]any{"roasts": []string{"light", "burnt"}})
			})

			Convey("Then an out-of-range desired dimension is rejected", func() {
				reject(map[string]any{"desired": map[string]any{"acidity": 42.0}})
			})

			Convey("Then a negative desired dimension is rejected", func() {
				reject(map[string]any{"desired": map[string]any{"body": -1.0}})
			})
		})

		Convey("When the limit parameter is malformed", func() {
			resp, _, err := doJSON(http.MethodGet, ts.URL+"/api/v1/recommendations/weather?limit=zero", nil)
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestRateLimiting(t *testing.T) {
	Convey("Given a server with a one-request budget", t, func() {
		ts, _ := newTestServer(t, api.WithRateLimit(0.01, 1))

		Convey("When two requests arrive back to back", func() {
			first, _, err := doJSON(http.MethodGet, ts.URL+"/api/v1/coffees", nil)
			So(err, ShouldBeNil)
			second, _, err := doJSON(http.MethodGet, ts.URL+"/api/v1/coffees", nil)
			So(err, ShouldBeNil)

			Convey("Then the second one is shed", func() {
				So(first.StatusCode, ShouldEqual, http.StatusOK)
				So(second.StatusCode, ShouldEqual, http.StatusTooManyRequests)
			})
		})

		Convey("When the health endpoint is hit repeatedly", func() {
			for i := 0; i < 3; i++ {
				resp, _, err := doJSON(http.MethodGet, ts.URL+"/healthz", nil)
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
			}
		})
	})
}

func TestStatsEndpoint(t *testing.T) {
	Convey("Given a running server", t, func() {
		ts, _ := newTestServer(t)

		Convey("When /stats is fetched", func() {
			resp, body, err := doJSON(http.MethodGet, ts.URL+"/stats", nil)

			Convey("Then counters come back as JSON", func() {
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body, ShouldContainKey, "catalogSize")
			})
		})
	})
}
