package openweathermap

// OpenWeatherMap API response structures.

// CurrentResponse is the body of GET /weather.
type CurrentResponse struct {
	Coord      coord            `json:"coord"`
	Weather    []conditionEntry `json:"weather"`
	Main       mainBlock        `json:"main"`
	Visibility int              `json:"visibility"`
	Wind       windBlock        `json:"wind"`
	Clouds     cloudsBlock      `json:"clouds"`
	Dt         int64            `json:"dt"`
	Sys        struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Timezone int    `json:"timezone"` // seconds east of UTC
	Name     string `json:"name"`
}

// ForecastResponse is the body of GET /forecast (5 days, 3-hour step).
type ForecastResponse struct {
	Cod  string         `json:"cod"`
	Cnt  int            `json:"cnt"`
	List []ForecastItem `json:"list"`
	City city           `json:"city"`
}

// ForecastItem is one 3-hour forecast slot.
type ForecastItem struct {
	Dt         int64            `json:"dt"`
	Main       mainBlock        `json:"main"`
	Weather    []conditionEntry `json:"weather"`
	Clouds     cloudsBlock      `json:"clouds"`
	Wind       windBlock        `json:"wind"`
	Visibility int              `json:"visibility"`
	Pop        float64          `json:"pop"`
	DtTxt      string           `json:"dt_txt"`
}

// DailyResponse is the body of GET /forecast/daily.
type DailyResponse struct {
	City city        `json:"city"`
	Cod  string      `json:"cod"`
	Cnt  int         `json:"cnt"`
	List []DailyItem `json:"list"`
}

// DailyItem is one day of the daily feed.
type DailyItem struct {
	Dt      int64 `json:"dt"`
	Sunrise int64 `json:"sunrise"`
	Sunset  int64 `json:"sunset"`
	Temp    struct {
		Day   float64 `json:"day"`
		Min   float64 `json:"min"`
		Max   float64 `json:"max"`
		Night float64 `json:"night"`
		Eve   float64 `json:"eve"`
		Morn  float64 `json:"morn"`
	} `json:"temp"`
	FeelsLike struct {
		Day   float64 `json:"day"`
		Night float64 `json:"night"`
		Eve   float64 `json:"eve"`
		Morn  float64 `json:"morn"`
	} `json:"feels_like"`
	Pressure int              `json:"pressure"`
	Humidity int              `json:"humidity"`
	Weather  []conditionEntry `json:"weather"`
	Speed    float64          `json:"speed"`
	Deg      int              `json:"deg"`
	Gust     *float64         `json:"gust"`
	Clouds   int              `json:"clouds"`
	Pop      float64          `json:"pop"`
}

type coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type conditionEntry struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type mainBlock struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  int     `json:"pressure"`
	Humidity  int     `json:"humidity"`
}

type windBlock struct {
	Speed float64  `json:"speed"`
	Deg   int      `json:"deg"`
	Gust  *float64 `json:"gust"`
}

type cloudsBlock struct {
	All int `json:"all"`
}

type city struct {
	Name     string `json:"name"`
	Coord    coord  `json:"coord"`
	Country  string `json:"country"`
	Timezone int    `json:"timezone"`
	Sunrise  int64  `json:"sunrise"`
	Sunset   int64  `json:"sunset"`
}
