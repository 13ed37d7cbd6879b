package main

import (
	"net/http"

	"github.com/sushihentaime/quill/internal/userservice"
)

func (app *application) signupHandler(w http.ResponseWriter, r *http.Request) {
	var input userservice.SignupRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	res, err := app.authService.Signup(r.Context(), &input)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	setAuthCookie(w, res.AccessToken, app.authService.CookieMaxAge())

	err = app.send(w, r, http.StatusCreated, res)
	if err != nil {
		app.errorResponse(w, r, err)
	}
}

func (app *application) signinHandler(w http.ResponseWriter, r *http.Request) {
	var input userservice.SigninRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	res, err := app.authService.Signin(r.Context(), &input)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	setAuthCookie(w, res.AccessToken, app.authService.CookieMaxAge())

	err = app.send(w, r, http.StatusOK, res)
	if err != nil {
		app.errorResponse(w, r, err)
	}
}

func (app *application) signoutHandler(w http.ResponseWriter, r *http.Request) {
	clearAuthCookie(w)

	err := app.send(w, r, http.StatusOK, envelope{"message": "signed out"})
	if err != nil {
		app.errorResponse(w, r, err)
	}
}

func (app *application) refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		RefreshToken string `json:"refreshToken"`
	}

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	token, err := app.authService.Refresh(r.Context(), input.RefreshToken)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	setAuthCookie(w, token, app.authService.CookieMaxAge())

	err = app.send(w, r, http.StatusOK, envelope{"accessToken": token})
	if err != nil {
		app.errorResponse(w, r, err)
	}
}

func (app *application) forgotPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.authService.ForgotPassword(r.Context(), input.Email)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.send(w, r, http.StatusOK, envelope{"message": "a password reset link has been sent to your email address"})
	if err != nil {
		app.errorResponse(w, r, err)
	}
}

func (app *application) resetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Password string `json:"password"`
	}

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.authService.ResetPassword(r.Context(), app.readStringParam(r, "token"), input.Password)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.send(w, r, http.StatusOK, envelope{"message": "your password has been reset"})
	if err != nil {
		app.errorResponse(w, r, err)
	}
}

func (app *application) getUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	user, err := app.userService.GetUser(r.Context(), id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.send(w, r, http.StatusOK, user)
	if err != nil {
		app.errorResponse(w, r, err)
	}
}

func (app *application) listUsersHandler(w http.ResponseWriter, r *http.Request) {
	page, limit, err := app.readPageParams(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	users, err := app.userService.ListUsers(r.Context(), page, limit)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.send(w, r, http.StatusOK, users)
	if err != nil {
		app.errorResponse(w, r, err)
	}
}

func (app *application) searchUsersHandler(w http.ResponseWriter, r *http.Request) {
	page, limit, err := app.readPageParams(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	users, err := app.userService.SearchUsers(r.Context(), app.readStringParam(r, "keyword"), page, limit)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.send(w, r, http.StatusOK, users)
	if err != nil {
		app.errorResponse(w, r, err)
	}
}

func (app *application) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	var input userservice.UpdateProfileRequest

	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	claims := app.getClaimsContext(r)

	user, err := app.userService.UpdateProfile(r.Context(), claims.UserID, id, &input)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.send(w, r, http.StatusOK, user)
	if err != nil {
		app.errorResponse(w, r, err)
	}
}

func (app *application) updatePasswordHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	var input struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}

	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	claims := app.getClaimsContext(r)

	err = app.userService.UpdatePassword(r.Context(), claims.UserID, id, input.OldPassword, input.NewPassword)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.send(w, r, http.StatusOK, envelope{"message": "password updated"})
	if err != nil {
		app.errorResponse(w, r, err)
	}
}

// imageHandler serves the profile and cover image updates. A request without an image
// file clears the image.
func (app *application) imageHandler(update func(r *http.Request, actorID, id int, url *string) (*userservice.UserResDto, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := app.readIDParam(r, "id")
		if err != nil {
			app.errorResponse(w, r, err)
			return
		}

		url, err := app.storeImage(w, r)
		if err != nil {
			app.errorResponse(w, r, err)
			return
		}

		claims := app.getClaimsContext(r)

		user, err := update(r, claims.UserID, id, url)
		if err != nil {
			app.errorResponse(w, r, err)
			return
		}

		err = app.send(w, r, http.StatusOK, user)
		if err != nil {
			app.errorResponse(w, r, err)
		}
	}
}

func (app *application) updateProfileImageHandler(w http.ResponseWriter, r *http.Request) {
	app.imageHandler(func(r *http.Request, actorID, id int, url *string) (*userservice.UserResDto, error) {
		return app.userService.UpdateProfileImage(r.Context(), actorID, id, url)
	})(w, r)
}

func (app *application) updateCoverImageHandler(w http.ResponseWriter, r *http.Request) {
	app.imageHandler(func(r *http.Request, actorID, id int, url *string) (*userservice.UserResDto, error) {
		return app.userService.UpdateCoverImage(r.Context(), actorID, id, url)
	})(w, r)
}

func (app *application) deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	var input struct {
		Password string `json:"password"`
	}

	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	claims := app.getClaimsContext(r)

	err = app.userService.DeleteUser(r.Context(), claims.UserID, id, input.Password)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	clearAuthCookie(w)

	err = app.send(w, r, http.StatusOK, envelope{"message": "user deleted"})
	if err != nil {
		app.errorResponse(w, r, err)
	}
}
