package httpx

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (fx *routerFixture) get(t *testing.T, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest("GET", path, nil)
	if cookie != nil {
		r.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	fx.handler.ServeHTTP(w, r)
	return w
}

func TestHomePageRenders(t *testing.T) {
	fx := newRouterFixture(t)

	w := fx.get(t, "/", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "CredNova")
	assert.Contains(t, w.Body.String(), "Seu nome limpo de volta")
	assert.Contains(t, w.Body.String(), "/cadastro")
}

func TestPublicPagesRender(t *testing.T) {
	fx := newRouterFixture(t)

	for path, fragment := range map[string]string{
		"/beneficios":  "Benefícios",
		"/privacidade": "Privacidade",
		"/termos":      "Termos de Uso",
		"/contato":     "Fale Conosco",
		"/login":       "Entrar",
		"/cadastro":    "Crie sua conta",
	} {
		w := fx.get(t, path, nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), fragment, path)
	}
}

func TestContactSubmitStoresMessage(t *testing.T) {
	fx := newRouterFixture(t)

	w := fx.postForm(t, "/contato", url.Values{
		"name":    {"João Pereira"},
		"email":   {"joao@example.com"},
		"phone":   {"(11) 99999-0000"},
		"message": {"Preciso limpar meu nome."},
	})

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/contato?sent=1", w.Header().Get("Location"))

	msgs, err := fx.contacts.List(t.Context(), listAllMessages())
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "João Pereira", msgs[0].Name)
	require.NotNil(t, msgs[0].Phone)
	assert.Equal(t, "(11) 99999-0000", *msgs[0].Phone)
}

func TestContactSubmitRejectsMissingFields(t *testing.T) {
	fx := newRouterFixture(t)

	w := fx.postForm(t, "/contato", url.Values{"name": {"João"}})

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/contato?error=invalid", w.Header().Get("Location"))

	msgs, err := fx.contacts.List(t.Context(), listAllMessages())
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestContactPageShowsConfirmation(t *testing.T) {
	fx := newRouterFixture(t)

	w := fx.get(t, "/contato?sent=1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Mensagem enviada")
}

func TestLoginPageShowsErrorMessage(t *testing.T) {
	fx := newRouterFixture(t)

	w := fx.get(t, "/login?error=invalid_credentials", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "E-mail ou senha inválidos")
}

func TestLoginPageRedirectsSignedInUser(t *testing.T) {
	fx := newRouterFixture(t)
	cookie := fx.login(t, testUserEmail, testUserPass)

	w := fx.get(t, "/login", cookie)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestHealthz(t *testing.T) {
	fx := newRouterFixture(t)

	w := fx.get(t, "/healthz", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
