package database

// Collection names as constants to prevent typos.
const (
	UsersCollection      = "users"
	DrivesCollection     = "drives"
	FoldersCollection    = "folders"
	FilesCollection      = "files"
	SubjectsCollection   = "subjects"
	ChaptersCollection   = "chapters"
	MaterialsCollection  = "materials"
	ActivitiesCollection = "activities"
)
