package terminal

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"authform-go/internal/biz"
	"authform-go/internal/biz/model"

	"go.uber.org/zap"
)

const defaultMaxAttempts = 3

var fieldLabels = map[model.Field]string{
	model.FieldUsername:        "Username",
	model.FieldEmail:           "Email",
	model.FieldPassword:        "Password",
	model.FieldConfirmPassword: "Confirm password",
}

var secretFields = map[model.Field]bool{
	model.FieldPassword:        true,
	model.FieldConfirmPassword: true,
}

// Runner 在终端里驱动一个表单：逐个字段提示，校验不通过时原地重问，提交失败后可以重试
type Runner struct {
	driver      PromptDriver
	logger      *zap.Logger
	maxAttempts int
}

type RunnerOption func(*Runner)

func WithMaxAttempts(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

func WithLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

func NewRunner(driver PromptDriver, opts ...RunnerOption) *Runner {
	r := &Runner{
		driver:      driver,
		logger:      zap.NewNop(),
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run 直到提交成功、用户放弃或者达到重试上限。返回最后一次的快照。
// 只有协作方失败计入重试上限，校验不通过时回到编辑。
func (r *Runner) Run(ctx context.Context, form *biz.Form) (model.Snapshot, error) {
	edit := true
	failures := 0
	for {
		if edit {
			if err := r.fill(ctx, form); err != nil {
				return form.Snapshot(), err
			}
		}

		ok, err := r.driver.Confirm(ctx, ConfirmConfig{Message: "Submit?", Default: true})
		if err != nil {
			return form.Snapshot(), err
		}
		if !ok {
			return form.Snapshot(), ErrAborted
		}

		if err := r.driver.Info(ctx, "Submitting..."); err != nil {
			return form.Snapshot(), err
		}
		snap, err := form.Submit(ctx)
		if err == nil {
			return snap, nil
		}

		var verr *model.ValidationError
		var serr *model.SubmissionError
		switch {
		case errors.As(err, &verr):
			r.logger.Debug("Submission rejected by validation", zap.Int("errors", len(verr.Errors)))
			if err := r.reportErrors(ctx, snap.Errors); err != nil {
				return snap, err
			}
			edit = true
			continue
		case errors.As(err, &serr):
			failures++
			r.logger.Debug("Submission attempt failed", zap.Int("attempt", failures), zap.Error(err))
			if err := r.driver.Info(ctx, "Submission failed: "+serr.Reason); err != nil {
				return snap, err
			}
		default:
			return snap, err
		}

		if failures >= r.maxAttempts {
			return snap, err
		}
		retry, cerr := r.driver.Confirm(ctx, ConfirmConfig{Message: "Try again?", Default: true})
		if cerr != nil {
			return snap, cerr
		}
		if !retry {
			return snap, err
		}
		edit, cerr = r.driver.Confirm(ctx, ConfirmConfig{Message: "Edit your answers first?"})
		if cerr != nil {
			return snap, cerr
		}
	}
}

// fill 按表单定义的顺序提示每个字段
func (r *Runner) fill(ctx context.Context, form *biz.Form) error {
	schema := form.Schema()
	for _, field := range schema.Fields {
		cfg := InputConfig{
			Message:   label(field) + ":",
			Validator: fieldValidator(form, field),
		}

		var (
			value string
			err   error
		)
		if secretFields[field] {
			value, err = r.driver.Password(ctx, cfg)
		} else {
			cfg.Default = form.Snapshot().Fields[field]
			value, err = r.driver.Input(ctx, cfg)
		}
		if err != nil {
			return err
		}
		// 最终答案可能是默认值，再提交一次保证表单与终端一致
		if _, err := form.Change(field, value); err != nil {
			return err
		}

		if field == model.FieldPassword && schema.ShowStrength {
			if s := form.Snapshot().Strength; s != nil {
				msg := fmt.Sprintf("Password strength: %s (%d/5)", s.Label, s.Score)
				if err := r.driver.Info(ctx, msg); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (r *Runner) reportErrors(ctx context.Context, errs model.FieldErrors) error {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)
	for _, f := range fields {
		if err := r.driver.Info(ctx, fmt.Sprintf("%s: %s", label(model.Field(f)), errs[model.Field(f)])); err != nil {
			return err
		}
	}
	return nil
}

// fieldValidator 每次输入都作为一次 change 事件交给表单，只返回该字段自己的错误
func fieldValidator(form *biz.Form, field model.Field) func(string) error {
	return func(value string) error {
		snap, err := form.Change(field, value)
		if err != nil {
			return err
		}
		if msg, ok := snap.Errors[field]; ok {
			return errors.New(msg)
		}
		return nil
	}
}

func label(field model.Field) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return string(field)
}
