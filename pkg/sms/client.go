package sms

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"
)

var ErrInvalidPhone = errors.New("phone number cannot be normalized")

type Client struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	Sender     string
	HTTPClient *http.Client
}

type SendMessageRequest struct {
	To   string `json:"to"`
	From string `json:"from"`
	Body string `json:"body"`
}

type SendMessageResponse struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

func NewClient(baseURL, accountSID, authToken, sender string) *Client {
	return &Client{
		BaseURL:    baseURL,
		AccountSID: accountSID,
		AuthToken:  authToken,
		Sender:     sender,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NormalizePhone converts a raw customer phone into +<digits> form.
// A leading 0 is replaced by the default country code, 00 by +.
func NormalizePhone(phone, defaultCountryCode string) (string, error) {
	var digits strings.Builder
	plus := false
	for i, r := range strings.TrimSpace(phone) {
		switch {
		case r == '+' && i == 0:
			plus = true
		case unicode.IsDigit(r):
			digits.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
			// separators are ignored
		default:
			return "", fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
		}
	}
	number := digits.String()
	switch {
	case plus:
	case strings.HasPrefix(number, "00"):
		number = number[2:]
	case strings.HasPrefix(number, "0"):
		number = defaultCountryCode + number[1:]
	}
	if len(number) < 8 || len(number) > 15 {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}
	return "+" + number, nil
}

// SendMessage posts one outbound SMS and returns the provider-assigned
// message id with its initial delivery status.
func (c *Client) SendMessage(phone, body string) (*SendMessageResponse, error) {
	requestData := SendMessageRequest{
		To:   phone,
		From: c.Sender,
		Body: body,
	}

	jsonData, err := json.Marshal(requestData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request data: %w", err)
	}

	url := fmt.Sprintf("%s/accounts/%s/messages", c.BaseURL, c.AccountSID)

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	auth := base64.StdEncoding.EncodeToString([]byte(c.AccountSID + ":" + c.AuthToken))
	req.Header.Set("Authorization", "Basic "+auth)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var response SendMessageResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &response, fmt.Errorf("provider rejected message: %s (%s)", response.Message, response.ErrorCode)
	}

	return &response, nil
}
