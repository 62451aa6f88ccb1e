// Package handler provides type-safe HTTP request handling for JSON APIs.
//
// Handlers are generic functions that receive a bound request struct and
// return a Response. Binding, rendering and error reporting are handled by Wrap:
//
//	type SignInRequest struct {
//		Email    string `json:"email" form:"email"`
//		Password string `json:"password" form:"password"`
//	}
//
//	func signIn(ctx handler.Context, req SignInRequest) handler.Response {
//		user, err := svc.SignIn(ctx, req.Email, req.Password)
//		if err != nil {
//			return handler.Error(err)
//		}
//		return handler.JSON(user)
//	}
//
//	r.Post("/signin", handler.Wrap(signIn,
//		handler.WithBinders[handler.Context, SignInRequest](binder.JSON(), binder.Form()),
//		handler.WithErrorHandler[handler.Context, SignInRequest](errorHandler),
//	))
//
// Errors returned from binders or from Response.Render are passed to the
// configured ErrorHandler. NewErrorHandler builds one that writes a JSON body,
// maps domain errors to HTTPError values and logs the failure with the request id.
package handler
