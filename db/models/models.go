package models

var registeredModels []any

func registerModel(model any) {
	registeredModels = append(registeredModels, model)
}

// GetModels returns every model that takes part in auto migration.
func GetModels() []any {
	return registeredModels
}
