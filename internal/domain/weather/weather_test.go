package weather_test

import (
	"testing"
	"time"

	"github.com/okian/crema/internal/domain/model"
	"github.com/okian/crema/internal/domain/weather"
	. "github.com/smartystreets/goconvey/convey"
)

func temp(v float64) *float64 { return &v }

func TestClassify(t *testing.T) {
	Convey("Given raw weather readings", t, func() {
		Convey("When the temperature is 30 with no rain", func() {
			wc := weather.Classify(&weather.Reading{TempC: temp(30), Conditions: "Clear"}, model.Day)

			Convey("Then the bucket is hot and dry", func() {
				So(wc.TempBucket, ShouldEqual, model.BucketHot)
				So(wc.Rainy, ShouldBeFalse)
			})
		})

		Convey("When the temperature is 10", func() {
			wc := weather.Classify(&weather.Reading{TempC: temp(10)}, model.Day)
			So(wc.TempBucket, ShouldEqual, model.BucketCold)
		})

		Convey("When the temperature is 24", func() {
			wc := weather.Classify(&weather.Reading{TempC: temp(24)}, model.Day)
			So(wc.TempBucket, ShouldEqual, model.BucketWarm)
		})

		Convey("When the temperature is 18", func() {
			wc := weather.Classify(&weather.Reading{TempC: temp(18)}, model.Day)
			So(wc.TempBucket, ShouldEqual, model.BucketMild)
		})

		Convey("When the boundary values are classified", func() {
			So(weather.Classify(&weather.Reading{TempC: temp(28)}, model.Day).TempBucket, ShouldEqual, model.BucketHot)
			So(weather.Classify(&weather.Reading{TempC: temp(16)}, model.Day).TempBucket, ShouldEqual, model.BucketCold)
			So(weather.Classify(&weather.Reading{TempC: temp(22)}, model.Day).TempBucket, ShouldEqual, model.BucketWarm)
			So(weather.Classify(&weather.Reading{TempC: temp(27)}, model.Day).TempBucket, ShouldEqual, model.BucketWarm)
		})

		Convey("When the conditions mention rain", func() {
			wc := weather.Classify(&weather.Reading{TempC: temp(20), Conditions: "Light Rain"}, model.Night)
			So(wc.Rainy, ShouldBeTrue)
			So(wc.PartOfDay, ShouldEqual, model.Night)
		})
	})

	Convey("Given no reading at all", t, func() {
		wc := weather.Classify(nil, model.Morning)

		Convey("Then the default context is mild and dry, not an error", func() {
			So(wc.TempBucket, ShouldEqual, model.BucketMild)
			So(wc.Rainy, ShouldBeFalse)
			So(wc.PartOfDay, ShouldEqual, model.Morning)
		})
	})

	Convey("Given a reading without a temperature", t, func() {
		wc := weather.Classify(&weather.Reading{Conditions: "Clouds"}, model.Day)
		So(wc.TempBucket, ShouldEqual, model.BucketMild)
		So(wc.Rainy, ShouldBeFalse)
	})
}

func TestPartOfDay(t *testing.T) {
	Convey("Given clock times through the day", t, func() {
		at := func(h int) time.Time {
			return time.Date(2025, 6, 1, h, 0, 0, 0, time.UTC)
		}

		So(weather.PartOfDayAt(at(7)), ShouldEqual, model.Morning)
		So(weather.PartOfDayAt(at(14)), ShouldEqual, model.Day)
		So(weather.PartOfDayAt(at(22)), ShouldEqual, model.Night)
		So(weather.PartOfDayAt(at(2)), ShouldEqual, model.Night)
	})

	Convey("Given caller-supplied hints", t, func() {
		noon := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

		Convey("Then valid hints win over the clock", func() {
			So(weather.ParsePartOfDay("night", noon), ShouldEqual, model.Night)
			So(weather.ParsePartOfDay(" Morning ", noon), ShouldEqual, model.Morning)
		})

		Convey("Then empty or unknown hints fall back to the clock", func() {
			So(weather.ParsePartOfDay("", noon), ShouldEqual, model.Day)
			So(weather.ParsePartOfDay("brunch", noon), ShouldEqual, model.Day)
		})
	})
}

func TestPreferenceFrom(t *testing.T) {
	Convey("Given a hot, dry afternoon", t, func() {
		p := weather.PreferenceFrom(model.WeatherContext{TempBucket: model.BucketHot, PartOfDay: model.Day})

		Convey("Then cold-serve styles are boosted", func() {
			So(p.BrewBonus["cold-brew"], ShouldBeGreaterThan, 0)
			So(p.BrewBonus["iced"], ShouldBeGreaterThan, 0)
			So(p.ServeBonus[model.ServeCold], ShouldBeGreaterThan, 0)
			So(p.RoastWeight[model.RoastLight], ShouldBeGreaterThan, 0)
		})

		Convey("And cold-weather boosts stay off", func() {
			So(p.ContainsBonus["milk"], ShouldEqual, 0)
			So(p.ServeBonus[model.ServeHot], ShouldEqual, 0)
		})
	})

	Convey("Given a cold day", t, func() {
		p := weather.PreferenceFrom(model.WeatherContext{TempBucket: model.BucketCold, PartOfDay: model.Day})

		Convey("Then hot-serve, dark roast, and milk are boosted", func() {
			So(p.ServeBonus[model.ServeHot], ShouldBeGreaterThan, 0)
			So(p.RoastWeight[model.RoastDark], ShouldBeGreaterThan, 0)
			So(p.ContainsBonus["milk"], ShouldBeGreaterThan, 0)
		})
	})

	Convey("Given a rainy night", t, func() {
		p := weather.PreferenceFrom(model.WeatherContext{TempBucket: model.BucketMild, Rainy: true, PartOfDay: model.Night})

		Convey("Then the aroma target rises and comfort is rewarded", func() {
			So(p.Sensory.Aroma, ShouldBeGreaterThan, 3)
			So(p.NoteWeight["comfort"], ShouldBeGreaterThan, 0)
		})

		Convey("And the acidity target drops for the evening", func() {
			So(p.Sensory.Acidity, ShouldBeLessThan, 3)
		})
	})

	Convey("Given a mild morning", t, func() {
		p := weather.PreferenceFrom(model.WeatherContext{TempBucket: model.BucketMild, PartOfDay: model.Morning})

		Convey("Then pour-over methods are boosted", func() {
			So(p.BrewBonus["v60"], ShouldBeGreaterThan, 0)
			So(p.BrewBonus["pour-over"], ShouldBeGreaterThan, 0)
		})
	})
}
