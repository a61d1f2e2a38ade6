package biz

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"authform-go/internal/biz/model"

	"go.uber.org/zap"
)

// 提交结果，用于日志和指标
const (
	OutcomeRejected  = "rejected"
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeTimeout   = "timeout"
)

const reasonCanceled = "submission canceled"

// Form 一个表单实例的状态机。
// 状态只通过 Change / Submit / Close 变化，渲染层通过 Snapshot 或 Subscribe 读取。
type Form struct {
	mu sync.Mutex

	schema  *Schema
	fields  model.FormFields
	errors  model.FieldErrors
	touched map[model.Field]bool
	state   model.SubmissionState
	reason  string
	result  any
	closed  bool

	subscribers map[int]func(model.Snapshot)
	nextSubID   int

	timeout    time.Duration
	logger     *zap.Logger
	onOutcome  func(schema, outcome string)
	now        func() time.Time
	lastActive time.Time
}

// FormOption 配置 Form
type FormOption func(*Form)

// WithTimeout 限定单次提交等待协作方的时长，0 表示不限
func WithTimeout(d time.Duration) FormOption {
	return func(f *Form) { f.timeout = d }
}

func WithLogger(logger *zap.Logger) FormOption {
	return func(f *Form) { f.logger = logger }
}

// WithOutcomeHook 每次提交结束后回调
func WithOutcomeHook(fn func(schema, outcome string)) FormOption {
	return func(f *Form) { f.onOutcome = fn }
}

func withClock(now func() time.Time) FormOption {
	return func(f *Form) { f.now = now }
}

// NewForm 创建空表单，初始状态为 idle
func NewForm(schema *Schema, opts ...FormOption) *Form {
	f := &Form{
		schema:      schema,
		fields:      make(model.FormFields, len(schema.Fields)),
		errors:      make(model.FieldErrors),
		touched:     make(map[model.Field]bool),
		state:       model.StateIdle,
		subscribers: make(map[int]func(model.Snapshot)),
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.lastActive = f.now()
	return f
}

// Schema 表单定义
func (f *Form) Schema() *Schema {
	return f.schema
}

// Change 处理一次输入：更新值，只校验该字段以及已经被触碰过的依赖字段
func (f *Form) Change(field model.Field, value string) (model.Snapshot, error) {
	f.mu.Lock()
	if err := f.acceptLocked(); err != nil {
		f.mu.Unlock()
		return model.Snapshot{}, err
	}
	if !f.schema.Has(field) {
		f.mu.Unlock()
		return model.Snapshot{}, fmt.Errorf("%w: %s", model.ErrUnknownField, field)
	}

	f.lastActive = f.now()
	f.fields[field] = value
	f.touched[field] = true
	f.validateLocked(field)
	for _, dep := range f.schema.Dependents[field] {
		if f.touched[dep] {
			f.validateLocked(dep)
		}
	}

	snap, subs := f.commitLocked()
	f.mu.Unlock()

	publish(snap, subs)
	return snap, nil
}

// Submit 重新校验全部字段；通过后调用协作方一次。
// 校验失败返回 *model.ValidationError，协作方失败返回 *model.SubmissionError，
// 两种情况下返回的快照都反映最新状态。
func (f *Form) Submit(ctx context.Context) (model.Snapshot, error) {
	f.mu.Lock()
	if err := f.acceptLocked(); err != nil {
		f.mu.Unlock()
		return model.Snapshot{}, err
	}
	f.lastActive = f.now()

	errs := f.schema.ValidateAll(f.fields)
	f.errors = errs
	for _, field := range f.schema.Fields {
		f.touched[field] = true
	}

	if len(errs) > 0 {
		f.state = model.StateIdle
		f.reason = ""
		snap, subs := f.commitLocked()
		f.mu.Unlock()

		publish(snap, subs)
		f.finish(OutcomeRejected, zap.Int("errors", len(errs)))
		return snap, &model.ValidationError{Errors: errs.Clone()}
	}

	f.state = model.StateSubmitting
	f.reason = ""
	payload := f.fields.Clone()
	snap, subs := f.commitLocked()
	f.mu.Unlock()
	publish(snap, subs)

	callCtx := ctx
	cancel := func() {}
	if f.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, f.timeout)
	}
	result, err := f.schema.Submit(callCtx, payload)
	deadline := errors.Is(callCtx.Err(), context.DeadlineExceeded)
	cancel()

	f.mu.Lock()
	f.lastActive = f.now()
	var serr *model.SubmissionError
	if err != nil {
		serr = submissionError(err, deadline)
		f.state = model.StateFailed
		f.reason = serr.Reason
	} else {
		f.state = model.StateSucceeded
		f.result = result
		// 提交成功后丢弃输入
		f.fields = make(model.FormFields)
		f.errors = make(model.FieldErrors)
		f.touched = make(map[model.Field]bool)
	}
	snap, subs = f.commitLocked()
	f.mu.Unlock()
	publish(snap, subs)

	if serr != nil {
		outcome := OutcomeFailed
		if serr.Timeout {
			outcome = OutcomeTimeout
		}
		f.finish(outcome, zap.String("reason", serr.Reason))
		return snap, serr
	}
	f.finish(OutcomeSucceeded)
	return snap, nil
}

// Snapshot 当前状态的只读副本
func (f *Form) Snapshot() model.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// Subscribe 注册快照回调，返回取消函数。回调在锁外执行。
func (f *Form) Subscribe(fn func(model.Snapshot)) (cancel func()) {
	f.mu.Lock()
	id := f.nextSubID
	f.nextSubID++
	f.subscribers[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.subscribers, id)
		f.mu.Unlock()
	}
}

// Close 丢弃表单数据，之后的事件返回 model.ErrFormClosed
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeLocked()
}

// CloseIfIdleBefore 最近活动早于 cutoff 且没有在途提交时关闭表单。
// 检查与关闭在同一把锁内完成，返回表单是否已关闭。
func (f *Form) CloseIfIdleBefore(cutoff time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case f.closed:
		return true
	case f.state == model.StateSubmitting:
		return false
	case !f.lastActive.Before(cutoff):
		return false
	}
	f.closeLocked()
	return true
}

func (f *Form) closeLocked() {
	f.closed = true
	f.fields = make(model.FormFields)
	f.errors = make(model.FieldErrors)
	f.subscribers = make(map[int]func(model.Snapshot))
}

// LastActive 最近一次事件的时间
func (f *Form) LastActive() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastActive
}

func (f *Form) acceptLocked() error {
	switch {
	case f.closed:
		return model.ErrFormClosed
	case f.state == model.StateSucceeded:
		return model.ErrFormCompleted
	case f.state == model.StateSubmitting:
		return model.ErrSubmissionInFlight
	}
	return nil
}

func (f *Form) validateLocked(field model.Field) {
	if msg := f.schema.Validate(field, f.fields); msg != "" {
		f.errors[field] = msg
		return
	}
	delete(f.errors, field)
}

func (f *Form) snapshotLocked() model.Snapshot {
	snap := model.Snapshot{
		Schema:        f.schema.Name,
		Fields:        f.fields.Clone(),
		Errors:        f.errors.Clone(),
		State:         f.state,
		FailureReason: f.reason,
		Result:        f.result,
	}
	if f.schema.ShowStrength {
		strength := PasswordStrength(f.fields[model.FieldPassword])
		snap.Strength = &strength
	}
	return snap
}

func (f *Form) commitLocked() (model.Snapshot, []func(model.Snapshot)) {
	subs := make([]func(model.Snapshot), 0, len(f.subscribers))
	for _, fn := range f.subscribers {
		subs = append(subs, fn)
	}
	return f.snapshotLocked(), subs
}

func (f *Form) finish(outcome string, fields ...zap.Field) {
	fields = append([]zap.Field{
		zap.String("schema", f.schema.Name),
		zap.String("outcome", outcome),
	}, fields...)
	if outcome == OutcomeSucceeded || outcome == OutcomeRejected {
		f.logger.Info("Form submission finished", fields...)
	} else {
		f.logger.Warn("Form submission failed", fields...)
	}
	if f.onOutcome != nil {
		f.onOutcome(f.schema.Name, outcome)
	}
}

func publish(snap model.Snapshot, subs []func(model.Snapshot)) {
	for _, fn := range subs {
		fn(snap)
	}
}

func submissionError(err error, deadline bool) *model.SubmissionError {
	if deadline || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, model.ErrSubmissionTimeout) {
		return &model.SubmissionError{Reason: model.ErrSubmissionTimeout.Error(), Timeout: true, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &model.SubmissionError{Reason: reasonCanceled, Err: err}
	}
	var authErr *model.AuthError
	if errors.As(err, &authErr) {
		return &model.SubmissionError{Reason: authErr.Error(), Err: err}
	}
	return &model.SubmissionError{Reason: err.Error(), Err: err}
}
