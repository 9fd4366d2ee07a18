// Package contact implementa o endpoint do formulário de contato do portfólio.
//
// Cada POST passa por uma sequência fixa de passos (método, origem, secrets,
// limite por IP, JSON, honeypot, tempo de preenchimento, campos obrigatórios,
// captcha) e, se tudo passar, vira uma mensagem no chat do Telegram.
// O primeiro passo que falha define o status e a mensagem de erro.
package contact
