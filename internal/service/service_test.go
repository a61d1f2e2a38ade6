package service

import (
	"context"
	"errors"
	"testing"
	"time"

	v1check "authform-go/api/check/v1"
	v1 "authform-go/api/form/v1"
	"authform-go/internal/biz"
	"authform-go/internal/biz/model"
	conf "authform-go/internal/conf/v1"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// MockAuthenticator 是 model.Authenticator 的模拟实现
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

// MockCheckUseCase 是 CheckUseCase 的模拟实现
type MockCheckUseCase struct {
	mock.Mock
}

func (m *MockCheckUseCase) Ready(ctx context.Context, req model.HealthCheckReq) (model.HealthCheckReply, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.HealthCheckReply), args.Error(1)
}

// testLifecycle 是用于测试的简单生命周期实现
type testLifecycle struct {
	hooks []fx.Hook
}

func (tl *testLifecycle) Append(hook fx.Hook) {
	tl.hooks = append(tl.hooks, hook)
}

// FormServiceTestSuite 是 FormService 的测试套件
type FormServiceTestSuite struct {
	suite.Suite
	auth    *MockAuthenticator
	service *FormService
}

func (suite *FormServiceTestSuite) SetupTest() {
	suite.auth = new(MockAuthenticator)
	uc, err := biz.NewFormUseCase(suite.auth, &conf.Bootstrap{
		Auth: &conf.Auth{RequestTimeoutSeconds: 1},
	}, zap.NewNop())
	suite.Require().NoError(err)
	suite.service = newFormService(uc, time.Minute, zap.NewNop())
}

func (suite *FormServiceTestSuite) open(kind string) string {
	resp, err := suite.service.OpenForm(context.Background(), connect.NewRequest(&v1.OpenFormRequest{Kind: kind}))
	suite.Require().NoError(err)
	return resp.Msg.FormId
}

func (suite *FormServiceTestSuite) change(id, field, value string) *v1.FormSnapshot {
	resp, err := suite.service.ChangeField(context.Background(), connect.NewRequest(&v1.ChangeFieldRequest{
		FormId: id,
		Field:  field,
		Value:  value,
	}))
	suite.Require().NoError(err)
	return resp.Msg.Snapshot
}

func (suite *FormServiceTestSuite) fillSignup(id string) {
	suite.change(id, "username", "alice")
	suite.change(id, "email", "alice@example.com")
	suite.change(id, "password", "Abcdef12")
	suite.change(id, "confirmPassword", "Abcdef12")
}

func (suite *FormServiceTestSuite) TestOpenForm() {
	resp, err := suite.service.OpenForm(context.Background(), connect.NewRequest(&v1.OpenFormRequest{Kind: v1.KindSignup}))

	suite.Require().NoError(err)
	assert.NotEmpty(suite.T(), resp.Msg.FormId)
	snap := resp.Msg.Snapshot
	assert.Equal(suite.T(), v1.KindSignup, snap.Kind)
	assert.Equal(suite.T(), v1.StateIdle, snap.State)
	assert.True(suite.T(), snap.Valid)
	assert.Empty(suite.T(), snap.Errors)
	suite.Require().NotNil(snap.Strength)
	assert.Equal(suite.T(), "Weak", snap.Strength.Label)
}

func (suite *FormServiceTestSuite) TestOpenForm_UnknownKind() {
	_, err := suite.service.OpenForm(context.Background(), connect.NewRequest(&v1.OpenFormRequest{Kind: "reset"}))

	assert.Equal(suite.T(), connect.CodeInvalidArgument, connect.CodeOf(err))
	assert.ErrorIs(suite.T(), err, biz.ErrUnknownSchema)
}

func (suite *FormServiceTestSuite) TestChangeField_ReportsErrorsAndHidesPasswords() {
	id := suite.open(v1.KindSignup)

	snap := suite.change(id, "email", "not-an-email")
	assert.Equal(suite.T(), biz.MsgEmailInvalid, snap.Errors["email"])
	assert.False(suite.T(), snap.Valid)

	snap = suite.change(id, "password", "Abcdef12")
	assert.NotContains(suite.T(), snap.Fields, "password")
	assert.Equal(suite.T(), []string{"password"}, snap.Filled)
	assert.Equal(suite.T(), "Strong", snap.Strength.Label)
	assert.Equal(suite.T(), int32(4), snap.Strength.Score)
	assert.Equal(suite.T(), "not-an-email", snap.Fields["email"])
}

func (suite *FormServiceTestSuite) TestChangeField_UnknownField() {
	id := suite.open(v1.KindLogin)

	_, err := suite.service.ChangeField(context.Background(), connect.NewRequest(&v1.ChangeFieldRequest{
		FormId: id,
		Field:  "username",
		Value:  "alice",
	}))

	assert.Equal(suite.T(), connect.CodeInvalidArgument, connect.CodeOf(err))
}

func (suite *FormServiceTestSuite) TestChangeField_BadFormID() {
	_, err := suite.service.ChangeField(context.Background(), connect.NewRequest(&v1.ChangeFieldRequest{FormId: "nope"}))
	assert.Equal(suite.T(), connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = suite.service.ChangeField(context.Background(), connect.NewRequest(&v1.ChangeFieldRequest{
		FormId: "7d444840-9dc0-11d1-b245-5ffdce74fad2",
		Field:  "email",
	}))
	assert.Equal(suite.T(), connect.CodeNotFound, connect.CodeOf(err))
}

func (suite *FormServiceTestSuite) TestSubmitForm_ValidationFailureInSnapshot() {
	id := suite.open(v1.KindSignup)

	resp, err := suite.service.SubmitForm(context.Background(), connect.NewRequest(&v1.SubmitFormRequest{FormId: id}))

	suite.Require().NoError(err)
	snap := resp.Msg.Snapshot
	assert.Equal(suite.T(), v1.StateIdle, snap.State)
	// 两个空密码相等，确认字段不报错
	assert.Len(suite.T(), snap.Errors, 3)
	assert.Equal(suite.T(), biz.MsgUsernameTooShort, snap.Errors["username"])
	assert.Equal(suite.T(), biz.MsgPasswordTooShort, snap.Errors["password"])
	suite.auth.AssertNotCalled(suite.T(), "Register", mock.Anything, mock.Anything)
}

func (suite *FormServiceTestSuite) TestSubmitForm_Success() {
	id := suite.open(v1.KindSignup)
	suite.fillSignup(id)
	suite.auth.On("Register", mock.Anything, model.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Abcdef12",
	}).Return(&model.Registration{UserID: "42", Message: "User registered successfully"}, nil).Once()

	resp, err := suite.service.SubmitForm(context.Background(), connect.NewRequest(&v1.SubmitFormRequest{FormId: id}))

	suite.Require().NoError(err)
	snap := resp.Msg.Snapshot
	assert.Equal(suite.T(), v1.StateSucceeded, snap.State)
	assert.Empty(suite.T(), snap.Fields)
	assert.Empty(suite.T(), snap.Filled)
	suite.Require().NotNil(snap.Registration)
	assert.Equal(suite.T(), "42", snap.Registration.UserId)

	// 成功后不再接受事件
	_, err = suite.service.ChangeField(context.Background(), connect.NewRequest(&v1.ChangeFieldRequest{
		FormId: id,
		Field:  "email",
		Value:  "x@example.com",
	}))
	assert.Equal(suite.T(), connect.CodeFailedPrecondition, connect.CodeOf(err))
	suite.auth.AssertExpectations(suite.T())
}

func (suite *FormServiceTestSuite) TestSubmitForm_CollaboratorFailureInSnapshot() {
	id := suite.open(v1.KindSignup)
	suite.fillSignup(id)
	suite.auth.On("Register", mock.Anything, mock.Anything).
		Return(nil, &model.AuthError{Status: 400, Detail: "Email already registered"}).Once()

	resp, err := suite.service.SubmitForm(context.Background(), connect.NewRequest(&v1.SubmitFormRequest{FormId: id}))

	suite.Require().NoError(err)
	snap := resp.Msg.Snapshot
	assert.Equal(suite.T(), v1.StateFailed, snap.State)
	assert.Equal(suite.T(), "Email already registered", snap.FailureReason)
	assert.Equal(suite.T(), "alice", snap.Fields["username"])
	assert.Equal(suite.T(), []string{"confirmPassword", "password"}, snap.Filled)
}

func (suite *FormServiceTestSuite) TestSubmitForm_LoginSession() {
	id := suite.open(v1.KindLogin)
	suite.change(id, "email", "alice@example.com")
	suite.change(id, "password", "whatever")
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	suite.auth.On("Login", mock.Anything, model.LoginRequest{Email: "alice@example.com", Password: "whatever"}).
		Return(&model.Session{AccessToken: "a", TokenType: "bearer", Subject: "alice@example.com", ExpiresAt: expires}, nil).Once()

	resp, err := suite.service.SubmitForm(context.Background(), connect.NewRequest(&v1.SubmitFormRequest{FormId: id}))

	suite.Require().NoError(err)
	snap := resp.Msg.Snapshot
	assert.Equal(suite.T(), v1.StateSucceeded, snap.State)
	assert.Nil(suite.T(), snap.Strength)
	suite.Require().NotNil(snap.Session)
	assert.Equal(suite.T(), "a", snap.Session.AccessToken)
	assert.Equal(suite.T(), "2030-01-01T00:00:00Z", snap.Session.ExpiresAt)
}

func (suite *FormServiceTestSuite) TestGetAndCloseForm() {
	id := suite.open(v1.KindSignup)
	suite.change(id, "username", "bob")

	resp, err := suite.service.GetForm(context.Background(), connect.NewRequest(&v1.GetFormRequest{FormId: id}))
	suite.Require().NoError(err)
	assert.Equal(suite.T(), "bob", resp.Msg.Snapshot.Fields["username"])

	_, err = suite.service.CloseForm(context.Background(), connect.NewRequest(&v1.CloseFormRequest{FormId: id}))
	suite.Require().NoError(err)

	_, err = suite.service.GetForm(context.Background(), connect.NewRequest(&v1.GetFormRequest{FormId: id}))
	assert.Equal(suite.T(), connect.CodeNotFound, connect.CodeOf(err))

	_, err = suite.service.CloseForm(context.Background(), connect.NewRequest(&v1.CloseFormRequest{FormId: id}))
	assert.Equal(suite.T(), connect.CodeNotFound, connect.CodeOf(err))
}

func (suite *FormServiceTestSuite) TestScorePassword() {
	resp, err := suite.service.ScorePassword(context.Background(), connect.NewRequest(&v1.ScorePasswordRequest{Password: "Abcdef1!"}))

	suite.Require().NoError(err)
	assert.Equal(suite.T(), int32(5), resp.Msg.Score)
	assert.Equal(suite.T(), "Strong", resp.Msg.Label)
}

func (suite *FormServiceTestSuite) TestReap() {
	stale := suite.open(v1.KindSignup)
	assert.Equal(suite.T(), 0, suite.service.Reap())

	suite.service.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	assert.Equal(suite.T(), 1, suite.service.Reap())

	_, err := suite.service.GetForm(context.Background(), connect.NewRequest(&v1.GetFormRequest{FormId: stale}))
	assert.Equal(suite.T(), connect.CodeNotFound, connect.CodeOf(err))
}

func (suite *FormServiceTestSuite) TestReap_SkipsInFlightSubmission() {
	id := suite.open(v1.KindSignup)
	suite.fillSignup(id)
	entered := make(chan struct{})
	release := make(chan struct{})
	suite.auth.On("Register", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(&model.Registration{UserID: "42"}, nil).Once()

	done := make(chan error, 1)
	go func() {
		_, err := suite.service.SubmitForm(context.Background(), connect.NewRequest(&v1.SubmitFormRequest{FormId: id}))
		done <- err
	}()
	<-entered

	// 空闲超时已过，但提交仍在进行
	suite.service.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	assert.Equal(suite.T(), 0, suite.service.Reap())

	close(release)
	suite.Require().NoError(<-done)
	resp, err := suite.service.GetForm(context.Background(), connect.NewRequest(&v1.GetFormRequest{FormId: id}))
	suite.Require().NoError(err)
	assert.Equal(suite.T(), v1.StateSucceeded, resp.Msg.Snapshot.State)
}

func TestFormServiceTestSuite(t *testing.T) {
	suite.Run(t, new(FormServiceTestSuite))
}

func TestNewFormService_Lifecycle(t *testing.T) {
	auth := new(MockAuthenticator)
	uc, err := biz.NewFormUseCase(auth, &conf.Bootstrap{Auth: &conf.Auth{}}, zap.NewNop())
	assert.NoError(t, err)

	lc := &testLifecycle{}
	handler := NewFormService(lc, uc, &conf.Bootstrap{
		Form: &conf.Form{IdleTTLSeconds: 60, ReapIntervalSeconds: 1},
	}, zap.NewNop())
	assert.Len(t, lc.hooks, 1)

	for _, hook := range lc.hooks {
		assert.NoError(t, hook.OnStart(context.Background()))
	}
	resp, err := handler.OpenForm(context.Background(), connect.NewRequest(&v1.OpenFormRequest{Kind: v1.KindLogin}))
	assert.NoError(t, err)
	for _, hook := range lc.hooks {
		assert.NoError(t, hook.OnStop(context.Background()))
	}

	// 停止后所有表单都已关闭
	_, err = handler.GetForm(context.Background(), connect.NewRequest(&v1.GetFormRequest{FormId: resp.Msg.FormId}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestNewFormService_NoReaper(t *testing.T) {
	uc, err := biz.NewFormUseCase(new(MockAuthenticator), &conf.Bootstrap{Auth: &conf.Auth{}}, zap.NewNop())
	assert.NoError(t, err)

	lc := &testLifecycle{}
	NewFormService(lc, uc, &conf.Bootstrap{}, zap.NewNop())
	assert.Empty(t, lc.hooks)
}

// CheckServiceTestSuite 是 CheckService 的测试套件
type CheckServiceTestSuite struct {
	suite.Suite
	checkUseCase *MockCheckUseCase
	checkService *CheckService
}

func (suite *CheckServiceTestSuite) SetupTest() {
	suite.checkUseCase = new(MockCheckUseCase)
	suite.checkService = NewCheckService(suite.checkUseCase).(*CheckService)
}

func (suite *CheckServiceTestSuite) TestReady_Success() {
	ctx := context.Background()
	req := &connect.Request[v1check.ReadyCheckReq]{}

	expectedReply := model.HealthCheckReply{
		Status:  "Ready",
		Details: map[string]string{"Auth": "OK"},
	}
	suite.checkUseCase.On("Ready", ctx, model.HealthCheckReq{}).Return(expectedReply, nil)

	resp, err := suite.checkService.Ready(ctx, req)

	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), resp)
	assert.Equal(suite.T(), "Ready", resp.Msg.Status)
	assert.Equal(suite.T(), expectedReply.Details, resp.Msg.Details)
}

func (suite *CheckServiceTestSuite) TestReady_Error() {
	ctx := context.Background()
	req := &connect.Request[v1check.ReadyCheckReq]{}

	expectedError := connect.NewError(connect.CodeUnavailable, errors.New("auth service down"))
	suite.checkUseCase.On("Ready", ctx, model.HealthCheckReq{}).Return(model.HealthCheckReply{Status: "Unhealthy"}, expectedError)

	resp, err := suite.checkService.Ready(ctx, req)

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), resp)
	assert.Equal(suite.T(), connect.CodeUnavailable, connect.CodeOf(err))
}

func TestCheckServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CheckServiceTestSuite))
}
