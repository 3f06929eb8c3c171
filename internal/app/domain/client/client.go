package client

// Client is a registered customer identified by a unique CPF (tax id).
type Client struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
	CPF  string `db:"cpf"`
}
