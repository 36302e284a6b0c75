// AngelaMos | 2026
// dto.go

package user

type CreateInput struct {
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=8,max=128"`
	Name     string `validate:"required,min=1,max=100"`
	Role     string `validate:"required,oneof=buyer seller both"`
}

type UpdateStatusInput struct {
	Status string `validate:"required,oneof=active inactive suspended banned"`
}
