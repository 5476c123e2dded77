package models

// Listing represents one scraped marketplace item
type Listing struct {
	Title string `json:"title" bson:"title"`
	Price string `json:"price" bson:"price"`
	Desc  string `json:"desc" bson:"desc"`
}

// Recommendation is a listing the analyzer considers good value
type Recommendation struct {
	Title  string  `json:"title" bson:"title" yaml:"title" validate:"required"`
	Price  string  `json:"price" bson:"price" yaml:"price"`
	Reason string  `json:"reason" bson:"reason" yaml:"reason"`
	Score  float64 `json:"score" bson:"score" yaml:"score" validate:"gte=0,lte=10"`
}
