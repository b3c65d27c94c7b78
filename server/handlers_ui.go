package server

import (
	"net/http"

	"github.com/jrsteele09/consulta-dashboard/users"
)

type pageKind string

const (
	pageHome           pageKind = "home"
	pageRegistration   pageKind = "registration"
	pageForgotPassword pageKind = "forgot-password"
	pageAuthLoading    pageKind = "auth-loading"
	pagePublicPlans    pageKind = "planos-publicos"
	pageReferrals      pageKind = "indicacoes"
	pageDashboard      pageKind = "dashboard"
	pageWallet         pageKind = "carteira"
	pageModules        pageKind = "modulos"
	pageAdminUsers     pageKind = "admin-usuarios"
)

var pageTitles = map[pageKind]string{
	pageHome:           "Início",
	pageRegistration:   "Cadastro",
	pageForgotPassword: "Recuperar senha",
	pageAuthLoading:    "Carregando",
	pagePublicPlans:    "Planos",
	pageReferrals:      "Indicações",
	pageDashboard:      "Painel",
	pageWallet:         "Carteira",
	pageModules:        "Módulos",
	pageAdminUsers:     "Usuários",
}

// PageData is the template model for the page shell
type PageData struct {
	AppName   string
	Title     string
	Page      string
	Protected bool
	User      *users.User
	Error     string
}

// PageHandler renders the shell for a page; the client script fills #app
func (s *Server) PageHandler(kind pageKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authState := authStateFromContext(r.Context())
		protected := authState.SessionID != ""
		if !protected {
			// Public pages still greet a signed-in user
			authState = s.auth.Current(r)
		}

		s.pages.render(w, s.pages.page, PageData{
			AppName:   s.config.GetAppName(),
			Title:     pageTitles[kind],
			Page:      string(kind),
			Protected: protected,
			User:      authState.User,
			Error:     r.URL.Query().Get("error"),
		})
	}
}
