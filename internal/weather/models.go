package weather

// Snapshot is one fully resolved weather reading for a city at a point in time.
// It is produced by the Client from provider responses or decoded from cache,
// never constructed piecemeal.
type Snapshot struct {
	CityID  int     `json:"id"`
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`

	Temp        float64 `json:"temp"`
	FeelsLike   float64 `json:"feelsLike"`
	TempMin     float64 `json:"tempMin"`
	TempMax     float64 `json:"tempMax"`
	Pressure    int     `json:"pressure"`
	Humidity    int     `json:"humidity"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`

	WindSpeed  float64 `json:"windSpeed"`
	WindDeg    int     `json:"windDeg"`
	Cloudiness int     `json:"cloudiness"`
	Visibility int     `json:"visibility"`

	// Unix seconds, as reported by the provider.
	Sunrise int64 `json:"sunrise"`
	Sunset  int64 `json:"sunset"`
}
