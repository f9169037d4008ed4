package api

import (
	"context"
	"errors"
	"net/http"

	"hotelpartner/internal/models"
)

const (
	pathLogin     = "/Login-Hotel"
	pathVerifyOTP = "/verify-otp"
	pathResendOTP = "/resend-otp"
)

// OTPPurposeLogin tags verify-otp calls made from the login screen.
const OTPPurposeLogin = "login"

// StartLogin asks the backend to send a login OTP for bh over channel.
// A 403 answer carries the BH id that still needs a hotel listing; a 402
// means the BH account itself is unverified. Both come back as *Error.
func (c *Client) StartLogin(ctx context.Context, bh string, channel models.LoginChannel) error {
	body := map[string]string{"BH": bh, "type": string(channel)}
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+pathLogin, pathLogin, "", nil, body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		if resp.Message != "" {
			return &Error{Status: http.StatusOK, Message: resp.Message}
		}
		return errors.New("api: login not started")
	}
	return nil
}

// VerifyOTP exchanges an OTP for a session token. phone is the hotel phone
// for registration and the BH id for login; purpose is empty or "login".
func (c *Client) VerifyOTP(ctx context.Context, phone, otp, purpose string) (string, error) {
	body := struct {
		HotelPhone string `json:"hotel_phone"`
		OTP        string `json:"otp"`
		Type       string `json:"type,omitempty"`
	}{phone, otp, purpose}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+pathVerifyOTP, pathVerifyOTP, "", nil, body, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", ErrMissingToken
	}
	return resp.Token, nil
}

// ResendOTP re-sends the registration OTP and returns the server's message.
func (c *Client) ResendOTP(ctx context.Context, phone string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	body := map[string]string{"hotel_phone": phone}
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+pathResendOTP, pathResendOTP, "", nil, body, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}
