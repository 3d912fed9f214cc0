package domain

// Template is a scaffold the generator starts from: a named set of seed
// files the model is expected to extend or modify.
type Template struct {
	ID    string
	Name  string
	Files FileMap
}
