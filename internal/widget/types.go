package widget

// DigitRequest is the JSON body for POST .../digit.
type DigitRequest struct {
	Digit string `json:"digit"` // "0"-"9" or "."
}

// OperatorRequest is the JSON body for POST .../operator.
type OperatorRequest struct {
	Operator string `json:"operator"` // "+", "−", "×", "÷", their ASCII forms or names
}

// ThemeRequest is the JSON body for PUT .../theme.
type ThemeRequest struct {
	Theme string `json:"theme"` // "light", "dark" or "toggle"
}

// KeysRequest is the JSON body for POST .../keys.
type KeysRequest struct {
	Keys string `json:"keys"` // e.g. "1.5×2.5="
}

// KeyResult records the output after one key of a sequence.
type KeyResult struct {
	Key      string `json:"key"`
	Equation string `json:"equation"`
	Display  string `json:"display"`
}

// KeysResponse is the JSON response for POST .../keys.
type KeysResponse struct {
	View
	Steps []KeyResult `json:"steps"`
}
