package model

// Company is a directory entry exposed by the get_companies tool.
type Company struct {
	ID   string `json:"id" bson:"_id"`
	Name string `json:"name" bson:"name"`
}

// Collaborator belongs to a Company.
type Collaborator struct {
	ID        string `json:"id" bson:"_id"`
	Name      string `json:"name" bson:"name"`
	CompanyID string `json:"company_id" bson:"company_id"`
}
