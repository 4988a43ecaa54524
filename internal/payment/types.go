package payment

// Статусы платежа
const (
	StatusPending   = "pending"
	StatusSucceeded = "succeeded"
	StatusCanceled  = "canceled"
)

// Amount сумма в строковом виде с двумя знаками после точки
type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// CreatePaymentRequest тело запроса на создание платежа
type CreatePaymentRequest struct {
	Amount       Amount            `json:"amount"`
	PaymentToken string            `json:"payment_token"`
	Capture      bool              `json:"capture"`
	Description  string            `json:"description,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Payment ответ шлюза
type Payment struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Paid   bool   `json:"paid"`
	Amount Amount `json:"amount"`
}
