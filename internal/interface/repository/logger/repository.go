package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kelvinofficial/avida-sub013/internal/domain"
)

// Repository はzapをバックエンドとするロガーのリポジトリ実装.
type Repository struct {
	logger *zap.Logger
}

// Verify interface implementation.
var _ domain.Logger = (*Repository)(nil)

// New は新しいRepositoryインスタンスを作成. ログはファイルと標準エラー
// 出力の両方に書き込む.
func New(directory, filename string, debug bool) (*Repository, error) {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, err
	}

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.OutputPaths = []string{
		filepath.Join(directory, filename),
		"stderr",
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Repository{logger: logger}, nil
}

// NewNop は何も出力しないRepositoryを作成. テスト用.
func NewNop() *Repository {
	return &Repository{logger: zap.NewNop()}
}

// Info はINFOレベルのログを記録.
func (r *Repository) Info(msg string, fields map[string]interface{}) {
	r.logger.Info(msg, toZapFields(nil, fields)...)
}

// Error はERRORレベルのログを記録.
func (r *Repository) Error(
	msg string, err error, fields map[string]interface{},
) {
	r.logger.Error(msg, toZapFields(err, fields)...)
}

// Debug はDEBUGレベルのログを記録.
func (r *Repository) Debug(msg string, fields map[string]interface{}) {
	r.logger.Debug(msg, toZapFields(nil, fields)...)
}

// Close はバッファされたログをフラッシュ.
func (r *Repository) Close() error {
	// stderrへのSyncは環境によって失敗するため、エラーは無視する
	_ = r.logger.Sync()
	return nil
}

// toZapFields はフィールドマップをzapのフィールドに変換.
func toZapFields(err error, fields map[string]interface{}) []zap.Field {
	zapFields := make([]zap.Field, 0, len(fields)+1)
	if err != nil {
		zapFields = append(zapFields, zap.Error(err))
	}
	for key, value := range fields {
		zapFields = append(zapFields, zap.Any(key, value))
	}
	return zapFields
}
