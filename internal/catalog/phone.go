package catalog

// Phone is one catalog entry. Prices are INR.
type Phone struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Brand         string   `json:"brand"`
	PriceINR      int      `json:"price_inr"`
	BatteryMAh    int      `json:"battery_mah"`
	MainCameraMP  int      `json:"main_camera_mp"`
	DisplayInches float64  `json:"display_inches"`
	RefreshRateHz int      `json:"refresh_rate_hz"`
	RAMGB         int      `json:"ram_gb"`
	StorageGB     int      `json:"storage_gb"`
	ChargingWatts int      `json:"charging_watts"`
	Has5G         bool     `json:"has_5g"`
	WeightGrams   int      `json:"weight_grams"`
	OS            string   `json:"os"`
	Features      []string `json:"features"`
}

// PriceBand buckets the price into the segment labels used across the app.
func (p Phone) PriceBand() string {
	switch {
	case p.PriceINR < 15000:
		return "budget"
	case p.PriceINR < 35000:
		return "midrange"
	case p.PriceINR < 70000:
		return "premium"
	default:
		return "flagship"
	}
}
