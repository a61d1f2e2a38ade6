package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	v1 "authform-go/api/form/v1"
	"authform-go/api/form/v1/formv1connect"
	"authform-go/internal/biz"
	"authform-go/internal/biz/model"
	conf "authform-go/internal/conf/v1"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// 密码类字段只回传是否已填写
var secretFields = map[model.Field]bool{
	model.FieldPassword:        true,
	model.FieldConfirmPassword: true,
}

// FormService 实现 Connect 服务，按 form_id 持有表单实例
type FormService struct {
	uc      *biz.FormUseCase
	logger  *zap.Logger
	idleTTL time.Duration
	now     func() time.Time
	active  metric.Int64UpDownCounter

	mu    sync.Mutex
	forms map[uuid.UUID]*biz.Form
}

// 显式接口检查
var _ formv1connect.FormServiceHandler = (*FormService)(nil)

// NewFormService 创建服务并在启动后定期回收空闲表单
func NewFormService(lc fx.Lifecycle, uc *biz.FormUseCase, cfg *conf.Bootstrap, logger *zap.Logger) formv1connect.FormServiceHandler {
	var idleTTL, interval time.Duration
	if cfg.Form != nil {
		idleTTL = time.Duration(cfg.Form.IdleTTLSeconds) * time.Second
		interval = time.Duration(cfg.Form.ReapIntervalSeconds) * time.Second
	}
	s := newFormService(uc, idleTTL, logger)

	if idleTTL > 0 && interval > 0 {
		stop := make(chan struct{})
		done := make(chan struct{})
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				go s.reapLoop(interval, stop, done)
				return nil
			},
			OnStop: func(ctx context.Context) error {
				close(stop)
				select {
				case <-done:
				case <-ctx.Done():
				}
				s.closeAll()
				return nil
			},
		})
	}

	return s
}

func newFormService(uc *biz.FormUseCase, idleTTL time.Duration, logger *zap.Logger) *FormService {
	meter := otel.GetMeterProvider().Meter("authform-go")
	active, err := meter.Int64UpDownCounter(
		"form.active",
		metric.WithDescription("当前持有的表单实例数"),
		metric.WithUnit("{form}"),
	)
	if err != nil {
		logger.Error("Failed to create active form counter", zap.Error(err))
	}

	return &FormService{
		uc:      uc,
		logger:  logger,
		idleTTL: idleTTL,
		now:     time.Now,
		active:  active,
		forms:   make(map[uuid.UUID]*biz.Form),
	}
}

func (s *FormService) OpenForm(ctx context.Context, req *connect.Request[v1.OpenFormRequest]) (*connect.Response[v1.OpenFormResponse], error) {
	form, err := s.uc.Open(req.Msg.Kind)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	id := uuid.New()
	s.mu.Lock()
	s.forms[id] = form
	s.mu.Unlock()
	s.addActive(ctx, 1)

	s.logger.Debug("Form opened", zap.String("form_id", id.String()), zap.String("kind", req.Msg.Kind))

	return connect.NewResponse(&v1.OpenFormResponse{
		FormId:   id.String(),
		Snapshot: toSnapshot(form.Snapshot()),
	}), nil
}

func (s *FormService) ChangeField(ctx context.Context, req *connect.Request[v1.ChangeFieldRequest]) (*connect.Response[v1.FormResponse], error) {
	form, err := s.lookup(req.Msg.FormId)
	if err != nil {
		return nil, err
	}

	snap, err := form.Change(model.Field(req.Msg.Field), req.Msg.Value)
	if err != nil {
		return nil, formError(err)
	}
	return connect.NewResponse(&v1.FormResponse{Snapshot: toSnapshot(snap)}), nil
}

// SubmitForm 校验失败和认证服务失败都体现在快照里，不作为 RPC 错误返回
func (s *FormService) SubmitForm(ctx context.Context, req *connect.Request[v1.SubmitFormRequest]) (*connect.Response[v1.FormResponse], error) {
	form, err := s.lookup(req.Msg.FormId)
	if err != nil {
		return nil, err
	}

	snap, err := form.Submit(ctx)
	if err != nil {
		var verr *model.ValidationError
		var serr *model.SubmissionError
		if !errors.As(err, &verr) && !errors.As(err, &serr) {
			return nil, formError(err)
		}
	}
	return connect.NewResponse(&v1.FormResponse{Snapshot: toSnapshot(snap)}), nil
}

func (s *FormService) GetForm(ctx context.Context, req *connect.Request[v1.GetFormRequest]) (*connect.Response[v1.FormResponse], error) {
	form, err := s.lookup(req.Msg.FormId)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&v1.FormResponse{Snapshot: toSnapshot(form.Snapshot())}), nil
}

func (s *FormService) CloseForm(ctx context.Context, req *connect.Request[v1.CloseFormRequest]) (*connect.Response[v1.CloseFormResponse], error) {
	id, err := parseFormID(req.Msg.FormId)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	form, ok := s.forms[id]
	delete(s.forms, id)
	s.mu.Unlock()
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, model.ErrFormClosed)
	}

	form.Close()
	s.addActive(ctx, -1)
	s.logger.Debug("Form closed", zap.String("form_id", id.String()))
	return connect.NewResponse(&v1.CloseFormResponse{}), nil
}

func (s *FormService) ScorePassword(ctx context.Context, req *connect.Request[v1.ScorePasswordRequest]) (*connect.Response[v1.ScorePasswordResponse], error) {
	strength := biz.PasswordStrength(req.Msg.Password)
	return connect.NewResponse(&v1.ScorePasswordResponse{
		Score: int32(strength.Score),
		Label: strength.Label,
	}), nil
}

// Reap 关闭空闲超过 idleTTL 的表单，正在提交的表单不回收
func (s *FormService) Reap() int {
	if s.idleTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.idleTTL)

	// 判断与关闭在表单锁内原子完成，在途提交不会被关闭
	s.mu.Lock()
	var expired []uuid.UUID
	for id, form := range s.forms {
		if form.CloseIfIdleBefore(cutoff) {
			expired = append(expired, id)
			delete(s.forms, id)
		}
	}
	s.mu.Unlock()

	if n := len(expired); n > 0 {
		s.addActive(context.Background(), -int64(n))
		s.logger.Info("Reaped idle forms", zap.Int("count", n))
	}
	return len(expired)
}

func (s *FormService) reapLoop(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Reap()
		case <-stop:
			return
		}
	}
}

func (s *FormService) closeAll() {
	s.mu.Lock()
	forms := s.forms
	s.forms = make(map[uuid.UUID]*biz.Form)
	s.mu.Unlock()

	for _, form := range forms {
		form.Close()
	}
	if len(forms) > 0 {
		s.addActive(context.Background(), -int64(len(forms)))
	}
}

func (s *FormService) lookup(raw string) (*biz.Form, error) {
	id, err := parseFormID(raw)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	form, ok := s.forms[id]
	s.mu.Unlock()
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, model.ErrFormClosed)
	}
	return form, nil
}

func (s *FormService) addActive(ctx context.Context, n int64) {
	if s.active != nil {
		s.active.Add(ctx, n)
	}
}

func parseFormID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	return id, nil
}

// formError 表单事件被拒绝时的错误码
func formError(err error) error {
	switch {
	case errors.Is(err, model.ErrUnknownField):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, model.ErrSubmissionInFlight), errors.Is(err, model.ErrFormCompleted):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, model.ErrFormClosed):
		return connect.NewError(connect.CodeNotFound, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func toSnapshot(snap model.Snapshot) *v1.FormSnapshot {
	out := &v1.FormSnapshot{
		Kind:          snap.Schema,
		Fields:        make(map[string]string, len(snap.Fields)),
		Errors:        make(map[string]string, len(snap.Errors)),
		State:         snap.State.String(),
		FailureReason: snap.FailureReason,
		Valid:         snap.Valid(),
	}
	for field, value := range snap.Fields {
		if secretFields[field] {
			if value != "" {
				out.Filled = append(out.Filled, string(field))
			}
			continue
		}
		out.Fields[string(field)] = value
	}
	sort.Strings(out.Filled)
	for field, msg := range snap.Errors {
		out.Errors[string(field)] = msg
	}
	if snap.Strength != nil {
		out.Strength = &v1.PasswordStrength{
			Score: int32(snap.Strength.Score),
			Label: snap.Strength.Label,
		}
	}

	switch result := snap.Result.(type) {
	case *model.Registration:
		out.Registration = &v1.Registration{
			UserId:  result.UserID,
			Message: result.Message,
		}
	case *model.Session:
		session := &v1.Session{
			AccessToken:  result.AccessToken,
			RefreshToken: result.RefreshToken,
			TokenType:    result.TokenType,
			Subject:      result.Subject,
		}
		if !result.ExpiresAt.IsZero() {
			session.ExpiresAt = result.ExpiresAt.UTC().Format(time.RFC3339)
		}
		out.Session = session
	}
	return out
}
