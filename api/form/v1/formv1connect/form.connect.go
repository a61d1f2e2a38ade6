// Package formv1connect FormService 的 Connect 客户端与服务端绑定。
package formv1connect

import (
	"context"
	"net/http"
	"strings"

	v1 "authform-go/api/form/v1"
	"authform-go/internal/pkg/codec"

	"connectrpc.com/connect"
)

// FormServiceName is the fully-qualified name of the FormService service.
const FormServiceName = "form.v1.FormService"

// These constants are the fully-qualified names of the RPCs defined in this package. They're
// exposed at runtime as Spec.Procedure and as the final two segments of the HTTP route.
const (
	// FormServiceOpenFormProcedure is the fully-qualified name of the FormService's OpenForm RPC.
	FormServiceOpenFormProcedure = "/form.v1.FormService/OpenForm"
	// FormServiceChangeFieldProcedure is the fully-qualified name of the FormService's ChangeField RPC.
	FormServiceChangeFieldProcedure = "/form.v1.FormService/ChangeField"
	// FormServiceSubmitFormProcedure is the fully-qualified name of the FormService's SubmitForm RPC.
	FormServiceSubmitFormProcedure = "/form.v1.FormService/SubmitForm"
	// FormServiceGetFormProcedure is the fully-qualified name of the FormService's GetForm RPC.
	FormServiceGetFormProcedure = "/form.v1.FormService/GetForm"
	// FormServiceCloseFormProcedure is the fully-qualified name of the FormService's CloseForm RPC.
	FormServiceCloseFormProcedure = "/form.v1.FormService/CloseForm"
	// FormServiceScorePasswordProcedure is the fully-qualified name of the FormService's ScorePassword RPC.
	FormServiceScorePasswordProcedure = "/form.v1.FormService/ScorePassword"
)

// FormServiceClient is a client for the form.v1.FormService service.
type FormServiceClient interface {
	OpenForm(context.Context, *connect.Request[v1.OpenFormRequest]) (*connect.Response[v1.OpenFormResponse], error)
	ChangeField(context.Context, *connect.Request[v1.ChangeFieldRequest]) (*connect.Response[v1.FormResponse], error)
	SubmitForm(context.Context, *connect.Request[v1.SubmitFormRequest]) (*connect.Response[v1.FormResponse], error)
	GetForm(context.Context, *connect.Request[v1.GetFormRequest]) (*connect.Response[v1.FormResponse], error)
	CloseForm(context.Context, *connect.Request[v1.CloseFormRequest]) (*connect.Response[v1.CloseFormResponse], error)
	ScorePassword(context.Context, *connect.Request[v1.ScorePasswordRequest]) (*connect.Response[v1.ScorePasswordResponse], error)
}

// NewFormServiceClient constructs a client for the form.v1.FormService service. Messages are
// always encoded with the sonic JSON codec.
//
// The URL supplied here should be the base URL for the Connect or gRPC server (for example,
// http://api.acme.com or https://acme.com/grpc).
func NewFormServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) FormServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(codec.JSON{})}, opts...)
	return &formServiceClient{
		openForm: connect.NewClient[v1.OpenFormRequest, v1.OpenFormResponse](
			httpClient,
			baseURL+FormServiceOpenFormProcedure,
			opts...,
		),
		changeField: connect.NewClient[v1.ChangeFieldRequest, v1.FormResponse](
			httpClient,
			baseURL+FormServiceChangeFieldProcedure,
			opts...,
		),
		submitForm: connect.NewClient[v1.SubmitFormRequest, v1.FormResponse](
			httpClient,
			baseURL+FormServiceSubmitFormProcedure,
			opts...,
		),
		getForm: connect.NewClient[v1.GetFormRequest, v1.FormResponse](
			httpClient,
			baseURL+FormServiceGetFormProcedure,
			opts...,
		),
		closeForm: connect.NewClient[v1.CloseFormRequest, v1.CloseFormResponse](
			httpClient,
			baseURL+FormServiceCloseFormProcedure,
			opts...,
		),
		scorePassword: connect.NewClient[v1.ScorePasswordRequest, v1.ScorePasswordResponse](
			httpClient,
			baseURL+FormServiceScorePasswordProcedure,
			opts...,
		),
	}
}

// formServiceClient implements FormServiceClient.
type formServiceClient struct {
	openForm      *connect.Client[v1.OpenFormRequest, v1.OpenFormResponse]
	changeField   *connect.Client[v1.ChangeFieldRequest, v1.FormResponse]
	submitForm    *connect.Client[v1.SubmitFormRequest, v1.FormResponse]
	getForm       *connect.Client[v1.GetFormRequest, v1.FormResponse]
	closeForm     *connect.Client[v1.CloseFormRequest, v1.CloseFormResponse]
	scorePassword *connect.Client[v1.ScorePasswordRequest, v1.ScorePasswordResponse]
}

// OpenForm calls form.v1.FormService.OpenForm.
func (c *formServiceClient) OpenForm(ctx context.Context, req *connect.Request[v1.OpenFormRequest]) (*connect.Response[v1.OpenFormResponse], error) {
	return c.openForm.CallUnary(ctx, req)
}

// ChangeField calls form.v1.FormService.ChangeField.
func (c *formServiceClient) ChangeField(ctx context.Context, req *connect.Request[v1.ChangeFieldRequest]) (*connect.Response[v1.FormResponse], error) {
	return c.changeField.CallUnary(ctx, req)
}

// SubmitForm calls form.v1.FormService.SubmitForm.
func (c *formServiceClient) SubmitForm(ctx context.Context, req *connect.Request[v1.SubmitFormRequest]) (*connect.Response[v1.FormResponse], error) {
	return c.submitForm.CallUnary(ctx, req)
}

// GetForm calls form.v1.FormService.GetForm.
func (c *formServiceClient) GetForm(ctx context.Context, req *connect.Request[v1.GetFormRequest]) (*connect.Response[v1.FormResponse], error) {
	return c.getForm.CallUnary(ctx, req)
}

// CloseForm calls form.v1.FormService.CloseForm.
func (c *formServiceClient) CloseForm(ctx context.Context, req *connect.Request[v1.CloseFormRequest]) (*connect.Response[v1.CloseFormResponse], error) {
	return c.closeForm.CallUnary(ctx, req)
}

// ScorePassword calls form.v1.FormService.ScorePassword.
func (c *formServiceClient) ScorePassword(ctx context.Context, req *connect.Request[v1.ScorePasswordRequest]) (*connect.Response[v1.ScorePasswordResponse], error) {
	return c.scorePassword.CallUnary(ctx, req)
}

// FormServiceHandler is an implementation of the form.v1.FormService service.
type FormServiceHandler interface {
	OpenForm(context.Context, *connect.Request[v1.OpenFormRequest]) (*connect.Response[v1.OpenFormResponse], error)
	ChangeField(context.Context, *connect.Request[v1.ChangeFieldRequest]) (*connect.Response[v1.FormResponse], error)
	SubmitForm(context.Context, *connect.Request[v1.SubmitFormRequest]) (*connect.Response[v1.FormResponse], error)
	GetForm(context.Context, *connect.Request[v1.GetFormRequest]) (*connect.Response[v1.FormResponse], error)
	CloseForm(context.Context, *connect.Request[v1.CloseFormRequest]) (*connect.Response[v1.CloseFormResponse], error)
	ScorePassword(context.Context, *connect.Request[v1.ScorePasswordRequest]) (*connect.Response[v1.ScorePasswordResponse], error)
}

// NewFormServiceHandler builds an HTTP handler from the service implementation. It returns the
// path on which to mount the handler and the handler itself.
//
// By default, handlers support the Connect, gRPC, and gRPC-Web protocols with the sonic JSON
// codec.
func NewFormServiceHandler(svc FormServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(codec.JSON{})}, opts...)
	formServiceOpenFormHandler := connect.NewUnaryHandler(
		FormServiceOpenFormProcedure,
		svc.OpenForm,
		opts...,
	)
	formServiceChangeFieldHandler := connect.NewUnaryHandler(
		FormServiceChangeFieldProcedure,
		svc.ChangeField,
		opts...,
	)
	formServiceSubmitFormHandler := connect.NewUnaryHandler(
		FormServiceSubmitFormProcedure,
		svc.SubmitForm,
		opts...,
	)
	formServiceGetFormHandler := connect.NewUnaryHandler(
		FormServiceGetFormProcedure,
		svc.GetForm,
		opts...,
	)
	formServiceCloseFormHandler := connect.NewUnaryHandler(
		FormServiceCloseFormProcedure,
		svc.CloseForm,
		opts...,
	)
	formServiceScorePasswordHandler := connect.NewUnaryHandler(
		FormServiceScorePasswordProcedure,
		svc.ScorePassword,
		opts...,
	)
	return "/form.v1.FormService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case FormServiceOpenFormProcedure:
			formServiceOpenFormHandler.ServeHTTP(w, r)
		case FormServiceChangeFieldProcedure:
			formServiceChangeFieldHandler.ServeHTTP(w, r)
		case FormServiceSubmitFormProcedure:
			formServiceSubmitFormHandler.ServeHTTP(w, r)
		case FormServiceGetFormProcedure:
			formServiceGetFormHandler.ServeHTTP(w, r)
		case FormServiceCloseFormProcedure:
			formServiceCloseFormHandler.ServeHTTP(w, r)
		case FormServiceScorePasswordProcedure:
			formServiceScorePasswordHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
