package account

import (
	"mime/multipart"
	"net/http"

	"github.com/dmitrymomot/authkit/handler"
	"github.com/dmitrymomot/authkit/pkg/jwt"
	"github.com/dmitrymomot/authkit/svc/auth"
	"github.com/dmitrymomot/authkit/svc/user"
)

type (
	signUpRequest struct {
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
		Name     string `json:"name" form:"name"`
	}

	signInRequest struct {
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
	}

	profileRequest struct {
		Name     *string               `json:"name" form:"name"`
		Email    *string               `json:"email" form:"email"`
		Password *string               `json:"password" form:"password"`
		Avatar   *multipart.FileHeader `json:"-" file:"avatar"`
	}

	themeRequest struct {
		Theme string `json:"theme" form:"theme"`
	}

	helpRequest struct {
		Email   string `json:"email" form:"email"`
		Comment string `json:"comment" form:"comment"`
	}

	forgotPasswordRequest struct {
		Email string `json:"email" form:"email"`
	}

	resetPasswordRequest struct {
		ResetToken  string `json:"resetToken" form:"resetToken"`
		NewPassword string `json:"newPassword" form:"newPassword"`
	}

	googleRedirectRequest struct {
		Code string `query:"code"`
	}

	noRequest struct{}
)

type (
	userSummary struct {
		Name   string `json:"name,omitempty"`
		Email  string `json:"email"`
		Avatar string `json:"avatar,omitempty"`
	}

	signUpResponse struct {
		User    userSummary `json:"user"`
		Message string      `json:"message"`
	}

	signInResponse struct {
		Token        string      `json:"token"`
		RefreshToken string      `json:"refreshToken"`
		User         userSummary `json:"user"`
	}

	refreshResponse struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}

	currentResponse struct {
		Name   string     `json:"name"`
		Email  string     `json:"email"`
		Avatar string     `json:"avatar"`
		Theme  user.Theme `json:"theme"`
	}

	profileResponse struct {
		User userSummary `json:"user"`
	}

	themeResponse struct {
		Theme user.Theme `json:"theme"`
	}

	messageResponse struct {
		Message string `json:"message"`
	}
)

func (m *Module) signUp(ctx handler.Context, req signUpRequest) handler.Response {
	u, err := m.svc.SignUp(ctx, auth.SignUpInput{Email: req.Email, Password: req.Password, Name: req.Name})
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(signUpResponse{
		User:    userSummary{Name: u.Name, Email: u.Email},
		Message: "Signup successful",
	}, handler.WithJSONStatus(http.StatusCreated))
}

func (m *Module) signIn(ctx handler.Context, req signInRequest) handler.Response {
	sess, err := m.svc.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(signInResponse{
		Token:        sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		User:         userSummary{Email: sess.User.Email},
	})
}

func (m *Module) refresh(ctx handler.Context, _ noRequest) handler.Response {
	token, _ := jwt.GetToken(ctx)
	pair, err := m.svc.RefreshToken(ctx, token)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(refreshResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (m *Module) logOut(ctx handler.Context, _ noRequest) handler.Response {
	if err := m.svc.LogOut(ctx, auth.GetUserFromContext(ctx).ID); err != nil {
		return handler.Error(err)
	}
	return handler.Empty()
}

func (m *Module) current(ctx handler.Context, _ noRequest) handler.Response {
	u := auth.GetUserFromContext(ctx)
	return handler.JSON(currentResponse{Name: u.Name, Email: u.Email, Avatar: u.AvatarURL, Theme: u.Theme})
}

func (m *Module) editProfile(ctx handler.Context, req profileRequest) handler.Response {
	u, err := m.svc.EditProfile(ctx, auth.GetUserFromContext(ctx).ID, auth.ProfileInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Avatar:   req.Avatar,
	})
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(profileResponse{User: userSummary{Name: u.Name, Email: u.Email, Avatar: u.AvatarURL}})
}

func (m *Module) changeTheme(ctx handler.Context, req themeRequest) handler.Response {
	theme, err := m.svc.ChangeTheme(ctx, auth.GetUserFromContext(ctx).ID, req.Theme)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(themeResponse{Theme: theme})
}

func (m *Module) help(ctx handler.Context, req helpRequest) handler.Response {
	if err := m.svc.Help(ctx, req.Email, req.Comment); err != nil {
		return handler.Error(err)
	}
	return handler.JSON(messageResponse{Message: "Help request sent"})
}

func (m *Module) forgotPassword(ctx handler.Context, req forgotPasswordRequest) handler.Response {
	if err := m.svc.ForgotPassword(ctx, req.Email); err != nil {
		return handler.Error(err)
	}
	return handler.JSON(messageResponse{Message: "Reset code sent to email"})
}

func (m *Module) resetPassword(ctx handler.Context, req resetPasswordRequest) handler.Response {
	if err := m.svc.ResetPassword(ctx, req.ResetToken, req.NewPassword); err != nil {
		return handler.Error(err)
	}
	return handler.JSON(messageResponse{Message: "Password reset successfully"})
}

func (m *Module) googleAuth(_ handler.Context, _ noRequest) handler.Response {
	authURL, err := m.svc.GoogleAuthURL()
	if err != nil {
		return handler.Error(err)
	}
	return handler.Redirect(authURL, http.StatusFound)
}

func (m *Module) googleRedirect(ctx handler.Context, req googleRedirectRequest) handler.Response {
	u, token, err := m.svc.GoogleLogin(ctx, req.Code)
	if err != nil {
		return handler.Error(err)
	}
	return handler.Redirect(m.svc.RedirectURL(u, token), http.StatusFound)
}
