package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// docsPage is a minimal endpoint reference served at /docs.
const docsPage = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>chatdocs API</title></head>
<body>
<h1>chatdocs API</h1>
<ul>
  <li><code>POST /chat-docs/upload</code> — multipart files[] + knowledge_base_id</li>
  <li><code>POST /chat-docs/uploadone</code> — multipart file + knowledge_base_id</li>
  <li><code>GET /chat-docs/list?knowledge_base_id=</code> — list documents or knowledge bases</li>
  <li><code>DELETE /chat-docs/delete</code> — form knowledge_base_id, optional doc_name</li>
  <li><code>POST /chat-docs/chat</code> — JSON knowledge_base_id, question, history</li>
  <li><code>POST /chat-docs/chatno</code> — JSON question, history</li>
  <li><code>GET /chat-docs/stream-chat/:knowledge_base_id</code> — WebSocket</li>
  <li><code>POST /feishu/event</code> — Feishu event webhook</li>
</ul>
</body>
</html>`

// Docs serves the API reference page.
func Docs(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(docsPage))
}
