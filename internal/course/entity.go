// AngelaMos | 2026
// entity.go

package course

type Course struct {
	ID      string `db:"id"`
	Code    string `db:"code"`
	Name    string `db:"name"`
	Faculty string `db:"faculty"`
}

type CreateInput struct {
	Code    string `validate:"required,min=2,max=32"`
	Name    string `validate:"required,min=1,max=200"`
	Faculty string `validate:"required,min=1,max=200"`
}
