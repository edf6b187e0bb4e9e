package weather

import "strings"

// TemperatureCategory is a coarse temperature band.
type TemperatureCategory string

const (
	TemperatureFreezing TemperatureCategory = "FREEZING" // < 0
	TemperatureCold     TemperatureCategory = "COLD"     // [0, 10)
	TemperatureCool     TemperatureCategory = "COOL"     // [10, 20)
	TemperatureMild     TemperatureCategory = "MILD"     // [20, 25)
	TemperatureWarm     TemperatureCategory = "WARM"     // [25, 30)
	TemperatureHot      TemperatureCategory = "HOT"      // [30, 35]
	TemperatureVeryHot  TemperatureCategory = "VERY_HOT" // > 35
)

// ConditionCategory is a reclassification of the upstream condition string.
type ConditionCategory string

const (
	ConditionClear  ConditionCategory = "CLEAR"
	ConditionCloudy ConditionCategory = "CLOUDY"
	ConditionRainy  ConditionCategory = "RAINY"
	ConditionStormy ConditionCategory = "STORMY"
	ConditionSnowy  ConditionCategory = "SNOWY"
	ConditionFoggy  ConditionCategory = "FOGGY"
)

// ComfortLevel rates how pleasant the current conditions feel.
type ComfortLevel string

const (
	ComfortVeryUncomfortable ComfortLevel = "VERY_UNCOMFORTABLE"
	ComfortUncomfortable     ComfortLevel = "UNCOMFORTABLE"
	ComfortNeutral           ComfortLevel = "NEUTRAL"
	ComfortComfortable       ComfortLevel = "COMFORTABLE"
	ComfortVeryComfortable   ComfortLevel = "VERY_COMFORTABLE"
)

// Analysis is derived from the current snapshot and never persisted.
type Analysis struct {
	TemperatureCategory TemperatureCategory `json:"temperatureCategory"`
	Condition           ConditionCategory   `json:"weatherCondition"`
	ComfortLevel        ComfortLevel        `json:"comfortLevel"`
	Recommendation      string              `json:"recommendation"`
}

// Recommendations holds the advice text for each rule.
type Recommendations struct {
	Freezing        string
	Cold            string
	Hot             string
	VeryHot         string
	Rainy           string
	Stormy          string
	Snowy           string
	VeryComfortable string
	Comfortable     string
	Neutral         string
}

// EnglishRecommendations returns the English advice table.
func EnglishRecommendations() Recommendations {
	return Recommendations{
		Freezing:        "Extremely cold. Keep warm and avoid long periods outdoors.",
		Cold:            "Cold weather. Wear warm clothing.",
		Hot:             "Hot weather. Use sun protection and stay hydrated.",
		VeryHot:         "Extreme heat. Avoid outdoor activity and watch for heatstroke.",
		Rainy:           "Rain expected. Bring an umbrella.",
		Stormy:          "Storms expected. Avoid outdoor activity.",
		Snowy:           "Snow expected. Roads may be slippery.",
		VeryComfortable: "Very pleasant weather, ideal for outdoor activities.",
		Comfortable:     "Comfortable weather, fine for most outdoor activities.",
		Neutral:         "Average conditions. Adjust your plans to how you feel.",
	}
}

// TraditionalChineseRecommendations returns the zh_tw advice table.
func TraditionalChineseRecommendations() Recommendations {
	return Recommendations{
		Freezing:        "天氣極冷，請注意保暖，避免長時間戶外活動",
		Cold:            "天氣寒冷，建議穿著保暖衣物",
		Hot:             "天氣炎熱，請注意防曬和補充水分",
		VeryHot:         "天氣極熱，避免戶外活動，注意中暑",
		Rainy:           "有降雨，請攜帶雨具",
		Stormy:          "有暴風雨，請避免戶外活動",
		Snowy:           "有降雪，請注意路面濕滑",
		VeryComfortable: "天氣非常舒適，適合戶外活動",
		Comfortable:     "天氣舒適，適合一般戶外活動",
		Neutral:         "天氣條件一般，請根據個人感受調整活動",
	}
}

// RecommendationsFor picks the advice table for a request language.
func RecommendationsFor(lang string) Recommendations {
	switch strings.ToLower(lang) {
	case "zh_tw", "zh-tw", "zh_hant":
		return TraditionalChineseRecommendations()
	default:
		return EnglishRecommendations()
	}
}

// Analyzer derives an Analysis from weather data.
type Analyzer struct {
	recommendations Recommendations
}

// NewAnalyzer creates an Analyzer using the given advice table.
func NewAnalyzer(recs Recommendations) *Analyzer {
	return &Analyzer{recommendations: recs}
}

// Analyze evaluates the current snapshot of w.
func (a *Analyzer) Analyze(w *Weather) Analysis {
	current := w.Current

	main := "Clear"
	if c, ok := w.PrimaryCondition(); ok {
		main = c.Main
	}

	temp := CategorizeTemperature(current.Temperature)
	cond := CategorizeCondition(main)
	comfort := ComfortFor(current.Temperature, current.Humidity, current.WindSpeed)

	return Analysis{
		TemperatureCategory: temp,
		Condition:           cond,
		ComfortLevel:        comfort,
		Recommendation:      a.recommend(temp, cond, comfort),
	}
}

// CategorizeTemperature maps a temperature to its band.
func CategorizeTemperature(t float64) TemperatureCategory {
	switch {
	case t < 0:
		return TemperatureFreezing
	case t < 10:
		return TemperatureCold
	case t < 20:
		return TemperatureCool
	case t < 25:
		return TemperatureMild
	case t < 30:
		return TemperatureWarm
	case t <= 35:
		return TemperatureHot
	default:
		return TemperatureVeryHot
	}
}

// CategorizeCondition reclassifies an upstream condition category, case-insensitively.
func CategorizeCondition(main string) ConditionCategory {
	switch strings.ToLower(main) {
	case "clouds":
		return ConditionCloudy
	case "rain", "drizzle":
		return ConditionRainy
	case "thunderstorm":
		return ConditionStormy
	case "snow":
		return ConditionSnowy
	case "mist", "fog", "haze":
		return ConditionFoggy
	default:
		return ConditionClear
	}
}

// ComfortFor rates comfort from temperature, humidity and wind speed.
// The checks overlap, so their order is significant.
func ComfortFor(temperature float64, humidity int, windSpeed float64) ComfortLevel {
	heatIndex := temperature + float64(humidity-50)*0.1
	windChill := temperature - windSpeed*0.5

	switch {
	case heatIndex > 40 || windChill < -10:
		return ComfortVeryUncomfortable
	case heatIndex > 35 || windChill < -5:
		return ComfortUncomfortable
	case heatIndex >= 25 && heatIndex <= 35 && windChill > -5:
		return ComfortComfortable
	case heatIndex >= 20 && heatIndex < 25 && windChill > 0:
		return ComfortVeryComfortable
	default:
		return ComfortNeutral
	}
}

func (a *Analyzer) recommend(temp TemperatureCategory, cond ConditionCategory, comfort ComfortLevel) string {
	r := a.recommendations
	switch {
	case temp == TemperatureFreezing:
		return r.Freezing
	case temp == TemperatureCold:
		return r.Cold
	case temp == TemperatureHot:
		return r.Hot
	case temp == TemperatureVeryHot:
		return r.VeryHot
	case cond == ConditionRainy:
		return r.Rainy
	case cond == ConditionStormy:
		return r.Stormy
	case cond == ConditionSnowy:
		return r.Snowy
	case comfort == ComfortVeryComfortable:
		return r.VeryComfortable
	case comfort == ComfortComfortable:
		return r.Comfortable
	default:
		return r.Neutral
	}
}
