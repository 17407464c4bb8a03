package model

// Declarations holds the categories a user declared for each role. Empty means not declared.
type Declarations struct {
	Teach string
	Learn string
}

func (d Declarations) Complete() bool {
	return d.Teach != "" && d.Learn != ""
}
