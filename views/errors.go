package views

import "github.com/a-h/templ"

// NotFound renders the 404 page.
func NotFound(cfg SiteConfig) templ.Component {
	return errorPage(cfg, "Página não encontrada", "404", "O post que você procura não existe.")
}

// ServerError renders the page shown when content could not be loaded.
func ServerError(cfg SiteConfig) templ.Component {
	return errorPage(cfg, "Erro", "Ops!", "Não foi possível carregar este conteúdo. Tente novamente em instantes.")
}

func errorPage(cfg SiteConfig, title, heading, message string) templ.Component {
	body := component(func(h *htmlWriter) {
		h.raw(`<main class="container error-page"><h1>`)
		h.text(heading)
		h.raw(`</h1><p>`)
		h.text(message)
		h.raw(`</p><a href="/">Voltar para o início</a></main>`)
	})
	return Layout(cfg, PageMeta{Title: PageTitle(cfg, title)}, "", body)
}
