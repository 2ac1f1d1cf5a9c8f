package handler

import "net/http"

// ネットワーク全断時に返す生成コンテンツ.

// placeholderSVG は画像取得に失敗したときの代替画像.
const placeholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="200" height="200" viewBox="0 0 200 200">
  <rect width="200" height="200" fill="#e5e7eb"/>
  <path d="M60 130l30-40 20 25 15-18 25 33z" fill="#9ca3af"/>
  <circle cx="75" cy="70" r="12" fill="#9ca3af"/>
  <text x="100" y="170" text-anchor="middle" font-family="sans-serif" font-size="12" fill="#6b7280">Image unavailable</text>
</svg>`

// offlineHTML はナビゲーション失敗時の代替ページ.
const offlineHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Offline - Avida Admin</title>
  <style>
    body { font-family: sans-serif; display: flex; align-items: center; justify-content: center; min-height: 100vh; margin: 0; background: #f9fafb; color: #111827; }
    .card { text-align: center; padding: 2rem; }
    h1 { font-size: 1.5rem; margin-bottom: 0.5rem; }
    p { color: #6b7280; }
    button { margin-top: 1rem; padding: 0.5rem 1.5rem; border: none; border-radius: 0.375rem; background: #2563eb; color: #fff; cursor: pointer; }
  </style>
</head>
<body>
  <div class="card">
    <h1>You&#39;re offline</h1>
    <p>The admin dashboard can&#39;t reach the server right now.</p>
    <button onclick="location.reload()">Retry</button>
  </div>
</body>
</html>`

// writePlaceholderImage は代替画像を書き出す.
func writePlaceholderImage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(placeholderSVG))
}

// writeOfflinePage は代替ページを書き出す.
func writeOfflinePage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusServiceUnavailable)
	w.Write([]byte(offlineHTML))
}
