package http

import (
	"net/http"
	"strconv"

	"github.com/otoshop/otoshop/internal/auth/domain"
	"github.com/otoshop/otoshop/internal/auth/security"
	"github.com/otoshop/otoshop/internal/auth/service"
	"github.com/otoshop/otoshop/pkg/authsdk"
	"github.com/otoshop/otoshop/pkg/httpx"
)

type AccountsHandler struct {
	AccountService *service.AccountService
}

// HandleList godoc
//
//	@Summary	List accounts
//	@Tags		Users
//	@Security	BearerAuth
//	@Produce	json
//	@Param		limit	query		int	false	"Page size (max 100)"
//	@Param		offset	query		int	false	"Offset"
//	@Success	200		{object}	authsdk.AccountListResponse
//	@Failure	401		{object}	authsdk.ErrorResponse
//	@Failure	403		{object}	authsdk.ErrorResponse
//	@Router		/users [get].
func (h *AccountsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	page, err := h.AccountService.List(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	items := make([]authsdk.AccountResponse, 0, len(page.Accounts))
	for _, a := range page.Accounts {
		items = append(items, toAccountResponse(service.AccountDetails{Account: a}))
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.AccountListResponse{
		Items:  items,
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}

// HandleCreate godoc
//
//	@Summary	Provision an account
//	@Tags		Users
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		authsdk.CreateAccountRequest	true	"Account"
//	@Success	201		{object}	authsdk.AccountResponse
//	@Failure	400		{object}	authsdk.ErrorResponse
//	@Failure	409		{object}	authsdk.ErrorResponse
//	@Router		/users [post].
func (h *AccountsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req authsdk.CreateAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadBody(w, r, err)
		return
	}

	in := service.ProvisionInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
		Address:  req.Address,
	}
	if req.Role != "" {
		role, ok := domain.ParseRole(req.Role)
		if !ok {
			authsdk.ErrInvalidRequest.WithMessage("unknown role").WriteError(w)
			return
		}
		in.Role = role
	}
	if req.Status != "" {
		st, ok := domain.ParseStatus(req.Status)
		if !ok {
			authsdk.ErrInvalidRequest.WithMessage("unknown status").WriteError(w)
			return
		}
		in.Status = st
	}

	d, err := h.AccountService.Provision(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toAccountResponse(d))
}

// HandleGet godoc
//
//	@Summary	Get an account
//	@Tags		Users
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Account ID"
//	@Success	200	{object}	authsdk.AccountResponse
//	@Failure	404	{object}	authsdk.ErrorResponse	"ACCOUNT_NOT_FOUND"
//	@Router		/users/{id} [get].
func (h *AccountsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	d, err := h.AccountService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAccountResponse(d))
}

// HandleUpdate godoc
//
//	@Summary		Update an account
//	@Description	Changes username, email, role, status or password. A new password is re-hashed.
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Account ID"
//	@Param			body	body		authsdk.UpdateAccountRequest	true	"Fields to change"
//	@Success		200		{object}	authsdk.AccountResponse
//	@Failure		400		{object}	authsdk.ErrorResponse
//	@Failure		404		{object}	authsdk.ErrorResponse
//	@Failure		409		{object}	authsdk.ErrorResponse
//	@Router			/users/{id} [put].
func (h *AccountsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req authsdk.UpdateAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadBody(w, r, err)
		return
	}

	in := service.UpdateInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}
	if req.Role != nil {
		role, ok := domain.ParseRole(*req.Role)
		if !ok {
			authsdk.ErrInvalidRequest.WithMessage("unknown role").WriteError(w)
			return
		}
		in.Role = &role
	}
	if req.Status != nil {
		st, ok := domain.ParseStatus(*req.Status)
		if !ok {
			authsdk.ErrInvalidRequest.WithMessage("unknown status").WriteError(w)
			return
		}
		in.Status = &st
	}

	d, err := h.AccountService.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAccountResponse(d))
}

// HandleDelete godoc
//
//	@Summary	Delete an account and its profile
//	@Tags		Users
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Account ID"
//	@Success	204
//	@Failure	404	{object}	authsdk.ErrorResponse
//	@Router		/users/{id} [delete].
func (h *AccountsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.AccountService.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe godoc
//
//	@Summary	Current account
//	@Tags		Users
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	authsdk.AccountResponse
//	@Failure	401	{object}	authsdk.ErrorResponse
//	@Router		/users/me [get].
func (h *AccountsHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := security.PrincipalFromContext(r.Context())
	if !ok {
		authsdk.ErrUnauthenticated.WriteError(w)
		return
	}

	d, err := h.AccountService.Me(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAccountResponse(d))
}

// HandleChangePassword godoc
//
//	@Summary	Change own password
//	@Tags		Users
//	@Security	BearerAuth
//	@Accept		json
//	@Param		body	body	authsdk.ChangePasswordRequest	true	"Passwords"
//	@Success	204
//	@Failure	400	{object}	authsdk.ErrorResponse	"INVALID_REQUEST or INVALID_CURRENT_PASSWORD"
//	@Router		/users/me/password [put].
func (h *AccountsHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	p, ok := security.PrincipalFromContext(r.Context())
	if !ok {
		authsdk.ErrUnauthenticated.WriteError(w)
		return
	}

	var req authsdk.ChangePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadBody(w, r, err)
		return
	}

	if err := h.AccountService.ChangePassword(r.Context(), p.AccountID, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleByUsername godoc
//
//	@Summary	Find an account by username
//	@Tags		Users
//	@Security	BearerAuth
//	@Produce	json
//	@Param		username	path		string	true	"Username"
//	@Success	200			{object}	authsdk.AccountResponse
//	@Failure	404			{object}	authsdk.ErrorResponse
//	@Router		/users/username/{username} [get].
func (h *AccountsHandler) HandleByUsername(w http.ResponseWriter, r *http.Request) {
	d, err := h.AccountService.FindByUsername(r.Context(), r.PathValue("username"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAccountResponse(d))
}

func toAccountResponse(d service.AccountDetails) authsdk.AccountResponse {
	return authsdk.AccountResponse{
		ID:        d.Account.ID,
		Username:  d.Account.Username,
		Email:     d.Account.Email,
		Role:      string(d.Account.Role),
		Status:    string(d.Account.Status),
		FullName:  d.Profile.FullName,
		Phone:     d.Profile.Phone,
		Address:   d.Profile.Address,
		AvatarURL: d.Profile.AvatarURL,
		CreatedAt: d.Account.CreatedAt,
		UpdatedAt: d.Account.UpdatedAt,
	}
}
