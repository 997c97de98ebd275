package model

// NearbyUser is one proximity search hit. Distance is in meters.
type NearbyUser struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"displayName"`
	PhotoURL    string  `json:"photoUrl"`
	Distance    float64 `json:"distance"`
}

// PaginatedUsers is a 1-indexed page of nearby users sorted by distance.
type PaginatedUsers struct {
	Users       []NearbyUser `json:"users"`
	Page        int          `json:"page"`
	PageSize    int          `json:"pageSize"`
	Total       int          `json:"total"`
	HasNextPage bool         `json:"hasNextPage"`
}
