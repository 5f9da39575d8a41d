// Package help holds text printed by the CLI.
package help

// ExampleConfigYAML is a complete config.yaml with every default spelled out.
// Credentials are left to the environment.
const ExampleConfigYAML = `# vacancy-watch configuration
# Every value here is optional. Environment variables override the file,
# command-line flags override both.

target:
  url: "https://portal.jne.gob.pe/portal/Pagina/Ver/77/page/Convocatoria-de-Personal-y-Practicantes"
  user_agent: "Mozilla/5.0 (compatible; vacancy-monitor/1.0)"
  page_timeout: 20s
  document_timeout: 30s
  max_document_bytes: 26214400
  document_extensions: [".pdf"]
  repository_fragments: ["/portal_documentos/files/"]

# Regular expressions, matched case-insensitively. One that does not
# compile is matched as plain text. \b only treats ASCII letters as word
# characters, so whole words next to accented text are fenced with
# (?:^|[^\p{L}\p{N}_]) and (?:$|[^\p{L}\p{N}_]) instead.
keywords:
  - '(?:^|[^\p{L}\p{N}_])fiscalizador(es)?(?:$|[^\p{L}\p{N}_])'
  - '(?:^|[^\p{L}\p{N}_])fiscalizador(es)?\s+(provincial|distrital)(es)?(?:$|[^\p{L}\p{N}_])'
  - '(?:^|[^\p{L}\p{N}_])CAS(?:$|[^\p{L}\p{N}_])'
  - '(?:^|[^\p{L}\p{N}_])D\.?\s*L\.?\s*728(?:$|[^\p{L}\p{N}_])'
  - 'Locaci[oó]n de servicio'
  - 'Practicante'

state:
  backend: json          # json or sqlite
  file: seen.json
  db_path: vacancy-watch.db

notify:
  telegram:              # TELEGRAM_TOKEN, TELEGRAM_CHAT_ID
    timeout: 20s
  email:                 # SMTP_USER, SMTP_PASS, NOTIFY_EMAIL_TO
    host: smtp.gmail.com
    port: "587"
    subject: "Nueva convocatoria JNE detectada"
    timeout: 30s

lock:                    # enabled when REDIS_ADDR is set
  key: "vacancy-watch:run"
  ttl: 10m

logging:
  level: info
  format: json           # json or console

watch:
  schedule: "@every 30m" # cron spec or descriptor

dry_run: false
`
