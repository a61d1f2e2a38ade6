package terminal

import (
	"context"
	"errors"
	"testing"

	"authform-go/internal/biz"
	"authform-go/internal/biz/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// stubDriver 按脚本作答，和 survey 一样在校验失败时取下一个答案
type stubDriver struct {
	inputs    []string
	passwords []string
	confirms  []bool
	infos     []string
	rejected  []string
	asked     []string
	// 不经过校验直接返回答案，模拟绕过了行内校验的输入
	skipValidation bool
}

func (s *stubDriver) answer(queue *[]string, cfg InputConfig) (string, error) {
	s.asked = append(s.asked, cfg.Message)
	for len(*queue) > 0 {
		val := (*queue)[0]
		*queue = (*queue)[1:]
		if cfg.Validator != nil && !s.skipValidation {
			if err := cfg.Validator(val); err != nil {
				s.rejected = append(s.rejected, err.Error())
				continue
			}
		}
		return val, nil
	}
	return "", errors.New("no answer scripted")
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	return s.answer(&s.inputs, cfg)
}

func (s *stubDriver) Password(_ context.Context, cfg InputConfig) (string, error) {
	return s.answer(&s.passwords, cfg)
}

func (s *stubDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	s.asked = append(s.asked, cfg.Message)
	if len(s.confirms) == 0 {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirms[0]
	s.confirms = s.confirms[1:]
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infos = append(s.infos, msg)
	return nil
}

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Register(ctx context.Context, req model.RegisterRequest) (*model.Registration, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Registration), args.Error(1)
}

func (m *MockAuthenticator) Login(ctx context.Context, req model.LoginRequest) (*model.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

var aliceSignup = model.RegisterRequest{
	Username: "alice",
	Email:    "alice@example.com",
	Password: "Abcdef12",
}

func TestRunner_SignupWithInlineErrors(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("Register", mock.Anything, aliceSignup).Return(&model.Registration{UserID: "42"}, nil).Once()
	driver := &stubDriver{
		inputs:    []string{"al", "alice", "alice@", "alice@example.com"},
		passwords: []string{"short", "Abcdef12", "Abcdef13", "Abcdef12"},
		confirms:  []bool{true},
	}

	snap, err := NewRunner(driver).Run(context.Background(), biz.NewForm(biz.SignupSchema(auth)))

	require.NoError(t, err)
	assert.Equal(t, model.StateSucceeded, snap.State)
	assert.Equal(t, &model.Registration{UserID: "42"}, snap.Result)
	assert.Equal(t, []string{
		biz.MsgUsernameTooShort,
		biz.MsgEmailInvalid,
		biz.MsgPasswordTooShort,
		biz.MsgPasswordMismatch,
	}, driver.rejected)
	assert.Contains(t, driver.infos, "Password strength: Strong (4/5)")
	assert.Equal(t, []string{"Username:", "Email:", "Password:", "Confirm password:", "Submit?"}, driver.asked)
	auth.AssertExpectations(t)
}

func TestRunner_RetryAfterFailure(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("Register", mock.Anything, aliceSignup).
		Return(nil, &model.AuthError{Status: 400, Detail: "Email already registered"}).Once()
	auth.On("Register", mock.Anything, aliceSignup).
		Return(&model.Registration{UserID: "7"}, nil).Once()
	driver := &stubDriver{
		inputs:    []string{"alice", "alice@example.com"},
		passwords: []string{"Abcdef12", "Abcdef12"},
		// 提交、重试、不修改、再次提交
		confirms: []bool{true, true, false, true},
	}

	snap, err := NewRunner(driver).Run(context.Background(), biz.NewForm(biz.SignupSchema(auth)))

	require.NoError(t, err)
	assert.Equal(t, model.StateSucceeded, snap.State)
	assert.Contains(t, driver.infos, "Submission failed: Email already registered")
	auth.AssertNumberOfCalls(t, "Register", 2)
}

func TestRunner_GiveUpAfterFailure(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("Login", mock.Anything, model.LoginRequest{Email: "bob@example.com", Password: "pw"}).
		Return(nil, &model.AuthError{Status: 401, Detail: "Invalid credentials"})
	driver := &stubDriver{
		inputs:    []string{"bob@example.com"},
		passwords: []string{"", "pw"},
		confirms:  []bool{true, false},
	}

	snap, err := NewRunner(driver).Run(context.Background(), biz.NewForm(biz.LoginSchema(auth)))

	var serr *model.SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "Invalid credentials", serr.Reason)
	assert.Equal(t, model.StateFailed, snap.State)
	assert.Equal(t, []string{biz.MsgPasswordRequired}, driver.rejected)
	assert.NotContains(t, driver.infos, "Password strength: Weak (0/5)")
}

func TestRunner_MaxAttempts(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("Login", mock.Anything, mock.Anything).Return(nil, model.ErrSubmissionTimeout)
	driver := &stubDriver{
		inputs:    []string{"bob@example.com"},
		passwords: []string{"pw"},
		confirms:  []bool{true},
	}

	_, err := NewRunner(driver, WithMaxAttempts(1)).Run(context.Background(), biz.NewForm(biz.LoginSchema(auth)))

	assert.ErrorIs(t, err, model.ErrSubmissionTimeout)
	assert.Contains(t, driver.infos, "Submission failed: authentication request timed out")
	assert.NotContains(t, driver.asked, "Try again?")
}

func TestRunner_ValidationRejectionDoesNotUseAttempt(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("Register", mock.Anything, aliceSignup).Return(&model.Registration{UserID: "42"}, nil).Once()
	driver := &stubDriver{
		inputs:         []string{"al", "alice@example.com", "alice", "alice@example.com"},
		passwords:      []string{"Abcdef12", "Abcdef12", "Abcdef12", "Abcdef12"},
		confirms:       []bool{true, true},
		skipValidation: true,
	}

	snap, err := NewRunner(driver, WithMaxAttempts(1)).Run(context.Background(), biz.NewForm(biz.SignupSchema(auth)))

	require.NoError(t, err)
	assert.Equal(t, model.StateSucceeded, snap.State)
	assert.Contains(t, driver.infos, "Username: "+biz.MsgUsernameTooShort)
	assert.NotContains(t, driver.asked, "Try again?")
	auth.AssertNumberOfCalls(t, "Register", 1)
}

func TestRunner_DeclineSubmit(t *testing.T) {
	auth := new(MockAuthenticator)
	driver := &stubDriver{
		inputs:    []string{"bob@example.com"},
		passwords: []string{"pw"},
		confirms:  []bool{false},
	}

	snap, err := NewRunner(driver).Run(context.Background(), biz.NewForm(biz.LoginSchema(auth)))

	assert.ErrorIs(t, err, ErrAborted)
	assert.Equal(t, model.StateIdle, snap.State)
	auth.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
}

func TestRunner_DriverError(t *testing.T) {
	driver := &stubDriver{}

	_, err := NewRunner(driver).Run(context.Background(), biz.NewForm(biz.LoginSchema(new(MockAuthenticator))))

	assert.EqualError(t, err, "no answer scripted")
}
