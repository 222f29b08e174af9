package services

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/account-service/internal/lib/smtp"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) GetSMTPUser() string {
	args := m.Called()
	return args.String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error {
	args := m.Called(from)
	return args.Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	args := m.Called(to)
	return args.Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSMTPClient) Quit() error {
	args := m.Called()
	return args.Error(0)
}

type MockSMTPWriter struct {
	mock.Mock
}

func (m *MockSMTPWriter) Write(p []byte) (n int, err error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *MockSMTPWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func setupHappyPathMocks(t *MockTransport) {
	mockClient := new(MockSMTPClient)
	mockWriter := new(MockSMTPWriter)

	t.On("GetSMTPUser").Return("sender@example.com")
	t.On("Connect").Return(mockClient, nil).Once()
	mockClient.On("Mail", "sender@example.com").Return(nil).Once()
	mockClient.On("Rcpt", "test@example.com").Return(nil).Once()
	mockClient.On("Data").Return(mockWriter, nil).Once()
	mockWriter.On("Write", mock.AnythingOfType("[]uint8")).Return(100, nil).Once()
	mockWriter.On("Close").Return(nil).Once()
	mockClient.On("Quit").Return(nil).Once()
	mockClient.On("Close").Return(nil).Once()
}

func TestSenderService_SendConfirmationCode(t *testing.T) {
	tests := []struct {
		name          string
		body          []byte
		setupMocks    func(*MockTransport)
		expectedError bool
		errorMessage  string
	}{
		{
			name:          "success - send confirmation code email",
			body:          []byte(`{"kind":"confirmation_code","email":"test@example.com","username":"testuser","code":"123456"}`),
			setupMocks:    setupHappyPathMocks,
			expectedError: false,
		},
		{
			name: "invalid JSON",
			body: []byte(`invalid json`),
			setupMocks: func(_ *MockTransport) {
				// No transport calls expected for invalid JSON
			},
			expectedError: true,
			errorMessage:  "error unmarshalling message",
		},
		{
			name: "SMTP connection error",
			body: []byte(`{"kind":"confirmation_code","email":"test@example.com","username":"testuser","code":"123456"}`),
			setupMocks: func(t *MockTransport) {
				t.On("GetSMTPUser").Return("sender@example.com")
				t.On("Connect").Return(nil, errors.New("connection error")).Once()
			},
			expectedError: true,
			errorMessage:  "connection error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			service := NewSenderService(newNoopLogger(), transport)

			tt.setupMocks(transport)

			err := service.SendConfirmationCode(tt.body)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMessage)
			} else {
				assert.NoError(t, err)
			}

			transport.AssertExpectations(t)
		})
	}
}

func TestSenderService_SendSuperAdminPassword(t *testing.T) {
	tests := []struct {
		name          string
		body          []byte
		setupMocks    func(*MockTransport)
		expectedError bool
		errorMessage  string
	}{
		{
			name:          "success - send super admin password email",
			body:          []byte(`{"kind":"super_admin_password","email":"test@example.com","username":"admin","password":"oneTimePass1"}`),
			setupMocks:    setupHappyPathMocks,
			expectedError: false,
		},
		{
			name: "invalid JSON",
			body: []byte(`invalid json`),
			setupMocks: func(_ *MockTransport) {
				// No transport calls expected for invalid JSON
			},
			expectedError: true,
			errorMessage:  "error unmarshalling message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			service := NewSenderService(newNoopLogger(), transport)

			tt.setupMocks(transport)

			err := service.SendSuperAdminPassword(tt.body)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMessage)
			} else {
				assert.NoError(t, err)
			}

			transport.AssertExpectations(t)
		})
	}
}

func TestSenderService_SMTPErrorHandling(t *testing.T) {
	body := []byte(`{"kind":"confirmation_code","email":"test@example.com","username":"testuser","code":"123456"}`)

	tests := []struct {
		name          string
		setupMocks    func(*MockTransport)
		expectedError bool
		errorMessage  string
	}{
		{
			name: "SMTP Mail error",
			setupMocks: func(t *MockTransport) {
				mockClient := new(MockSMTPClient)

				t.On("GetSMTPUser").Return("sender@example.com")
				t.On("Connect").Return(mockClient, nil).Once()
				mockClient.On("Mail", "sender@example.com").Return(errors.New("mail error")).Once()
				mockClient.On("Close").Return(nil).Once()
			},
			expectedError: true,
			errorMessage:  "mail error",
		},
		{
			name: "SMTP Rcpt error",
			setupMocks: func(t *MockTransport) {
				mockClient := new(MockSMTPClient)

				t.On("GetSMTPUser").Return("sender@example.com")
				t.On("Connect").Return(mockClient, nil).Once()
				mockClient.On("Mail", "sender@example.com").Return(nil).Once()
				mockClient.On("Rcpt", "test@example.com").Return(errors.New("rcpt error")).Once()
				mockClient.On("Close").Return(nil).Once()
			},
			expectedError: true,
			errorMessage:  "rcpt error",
		},
		{
			name: "SMTP Data error",
			setupMocks: func(t *MockTransport) {
				mockClient := new(MockSMTPClient)

				t.On("GetSMTPUser").Return("sender@example.com")
				t.On("Connect").Return(mockClient, nil).Once()
				mockClient.On("Mail", "sender@example.com").Return(nil).Once()
				mockClient.On("Rcpt", "test@example.com").Return(nil).Once()
				mockClient.On("Data").Return(nil, errors.New("data error")).Once()
				mockClient.On("Close").Return(nil).Once()
			},
			expectedError: true,
			errorMessage:  "data error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			service := NewSenderService(newNoopLogger(), transport)

			tt.setupMocks(transport)

			err := service.SendConfirmationCode(body)

			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMessage)

			transport.AssertExpectations(t)
		})
	}
}
