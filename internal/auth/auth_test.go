package auth

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hotelpartner/internal/api"
	"hotelpartner/internal/clock"
	"hotelpartner/internal/models"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) StartLogin(ctx context.Context, bh string, channel models.LoginChannel) error {
	return m.Called(ctx, bh, channel).Error(0)
}

func (m *mockAPI) VerifyOTP(ctx context.Context, phone, otp, purpose string) (string, error) {
	args := m.Called(ctx, phone, otp, purpose)
	return args.String(0), args.Error(1)
}

func (m *mockAPI) ResendOTP(ctx context.Context, phone string) (string, error) {
	args := m.Called(ctx, phone)
	return args.String(0), args.Error(1)
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) UpdateToken(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func testOptions(c clock.Clock) Options {
	logger := zerolog.New(io.Discard)
	return Options{Clock: c, Logger: &logger}
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestLogin_InvalidBH(t *testing.T) {
	client := new(mockAPI)
	login := NewLogin(client, new(mockSink), testOptions(clock.Fake(epoch)))

	for _, bh := range []string{"", "BH12345", "XX123456", "bh123456"} {
		err := login.Start(context.Background(), bh, models.ChannelText)
		assert.ErrorIs(t, err, ErrInvalidBH, bh)
		assert.Equal(t, MsgInvalidBH, UserMessage(err, ""))
	}
	client.AssertNotCalled(t, "StartLogin", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin_FullFlow(t *testing.T) {
	fake := clock.Fake(epoch)
	client := new(mockAPI)
	sink := new(mockSink)
	login := NewLogin(client, sink, testOptions(fake))
	ctx := context.Background()

	assert.ErrorIs(t, login.Verify(ctx, "1234"), ErrLoginNotStarted)

	client.On("StartLogin", mock.Anything, "BH123456", models.ChannelWhatsApp).Return(nil)
	require.NoError(t, login.Start(ctx, "BH123456", models.ChannelWhatsApp))
	assert.Equal(t, 90, login.ResendIn())

	assert.ErrorIs(t, login.Resend(ctx), ErrResendTooSoon)
	fake.Advance(90 * time.Second)
	require.NoError(t, login.Resend(ctx))
	assert.Equal(t, 90, login.ResendIn(), "resend restores the full countdown")
	client.AssertNumberOfCalls(t, "StartLogin", 2)

	assert.ErrorIs(t, login.Verify(ctx, " "), ErrOTPRequired)

	client.On("VerifyOTP", mock.Anything, "BH123456", "1234", "login").Return("jwt", nil)
	sink.On("UpdateToken", mock.Anything, "jwt").Return(nil)
	require.NoError(t, login.Verify(ctx, "1234"))
	assert.Equal(t, 0, login.ResendIn())
	sink.AssertExpectations(t)
}

func TestLogin_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		check   func(t *testing.T, err error)
		message string
	}{
		{
			name: "listing required",
			err:  &api.Error{Status: 403, BhID: "BH654321"},
			check: func(t *testing.T, err error) {
				var listing *ListingRequiredError
				require.True(t, errors.As(err, &listing))
				assert.Equal(t, "BH654321", listing.BhID)
			},
		},
		{
			name: "verification required",
			err:  &api.Error{Status: 402},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrBHVerificationRequired)
			},
		},
		{
			name: "other failure keeps server message",
			err:  &api.Error{Status: 404, Message: "BH not found"},
			check: func(t *testing.T, err error) {
				assert.Equal(t, "BH not found", UserMessage(err, MsgLoginFailed))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(mockAPI)
			client.On("StartLogin", mock.Anything, "BH654321", models.ChannelText).Return(tt.err)
			login := NewLogin(client, new(mockSink), testOptions(clock.Fake(epoch)))

			err := login.Start(context.Background(), "BH654321", "")
			require.Error(t, err)
			tt.check(t, err)
			assert.Equal(t, 0, login.ResendIn(), "failed start does not run the countdown")
		})
	}
}

func TestLogin_SessionWriteFailureDoesNotFailLogin(t *testing.T) {
	client := new(mockAPI)
	sink := new(mockSink)
	client.On("StartLogin", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	client.On("VerifyOTP", mock.Anything, "BH123456", "1234", "login").Return("jwt", nil)
	sink.On("UpdateToken", mock.Anything, "jwt").Return(errors.New("disk full"))

	login := NewLogin(client, sink, testOptions(clock.Fake(epoch)))
	require.NoError(t, login.Start(context.Background(), "BH123456", models.ChannelText))
	assert.NoError(t, login.Verify(context.Background(), "1234"))
}

func TestLogin_VerifyFailure(t *testing.T) {
	client := new(mockAPI)
	sink := new(mockSink)
	client.On("StartLogin", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	client.On("VerifyOTP", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", &api.Error{Status: 400})

	login := NewLogin(client, sink, testOptions(clock.Fake(epoch)))
	require.NoError(t, login.Start(context.Background(), "BH123456", models.ChannelText))
	err := login.Verify(context.Background(), "9999")
	require.Error(t, err)
	assert.Equal(t, MsgLoginOTPFailed, UserMessage(err, MsgLoginOTPFailed))
	sink.AssertNotCalled(t, "UpdateToken", mock.Anything, mock.Anything)
}

func TestRegistration(t *testing.T) {
	fake := clock.Fake(epoch)
	client := new(mockAPI)
	sink := new(mockSink)
	reg := NewRegistration(client, sink, "9876543210", testOptions(fake))
	ctx := context.Background()

	reg.Begin()
	assert.Equal(t, 120, reg.ResendIn())
	_, err := reg.Resend(ctx)
	assert.ErrorIs(t, err, ErrResendTooSoon)

	fake.Advance(2 * time.Minute)
	client.On("ResendOTP", mock.Anything, "9876543210").Return("OTP sent", nil).Once()
	msg, err := reg.Resend(ctx)
	require.NoError(t, err)
	assert.Equal(t, "OTP sent", msg)
	assert.Equal(t, 120, reg.ResendIn())

	assert.ErrorIs(t, reg.Verify(ctx, ""), ErrOTPRequired)

	client.On("VerifyOTP", mock.Anything, "9876543210", "5555", "").Return("jwt", nil)
	sink.On("UpdateToken", mock.Anything, "jwt").Return(nil)
	require.NoError(t, reg.Verify(ctx, "5555"))
	sink.AssertExpectations(t)
	reg.Close()
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil, "x"))
	assert.Equal(t, MsgEnterOTP, UserMessage(ErrOTPRequired, "x"))
	assert.Equal(t, "x", UserMessage(errors.New("dial"), "x"))
	assert.Contains(t, UserMessage(&ListingRequiredError{BhID: "BH1"}, "x"), "BH1")
}
