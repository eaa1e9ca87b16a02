package middleware

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	RequestLogFile = "requests.log"
	ErrorLogFile   = "errors.log"
)

// LogConfig holds configuration for the logging middleware
type LogConfig struct {
	Console bool
	File    bool
	// Directory holding requests.log and errors.log
	Dir string
	// "json" or "text"
	Format    string
	SkipPaths []string
}

// LogData is one line of the request log
type LogData struct {
	Timestamp     time.Time     `json:"timestamp"`
	Method        string        `json:"method"`
	Path          string        `json:"path"`
	URL           string        `json:"url"`
	Status        int           `json:"status"`
	Latency       time.Duration `json:"latency"`
	IP            string        `json:"ip"`
	UserAgent     string        `json:"user_agent"`
	RequestID     string        `json:"request_id"`
	Error         string        `json:"error,omitempty"`
	UserID        uint          `json:"user_id,omitempty"`
	Username      string        `json:"username,omitempty"`
	ContentLength int64         `json:"content_length"`
}

func DefaultLogConfig(dir string) LogConfig {
	return LogConfig{
		Console:   true,
		File:      dir != "",
		Dir:       dir,
		Format:    "json",
		SkipPaths: []string{"/health"},
	}
}

// LoggingMiddleware logs every request after the handler chain has run.
func LoggingMiddleware(cfg LogConfig) fiber.Handler {
	if cfg.File {
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			log.Printf("Error creating logs directory: %v\n", err)
		}
	}

	return func(c *fiber.Ctx) error {
		for _, skipPath := range cfg.SkipPaths {
			if c.Path() == skipPath {
				return c.Next()
			}
		}

		start := time.Now()
		err := c.Next()
		data := collect(c, start, err)

		var line string
		if cfg.Format == "text" {
			line = formatTextLog(data)
		} else {
			raw, _ := json.Marshal(data)
			line = string(raw)
		}
		if cfg.Console {
			log.Println(line)
		}
		if cfg.File {
			logToFile(filepath.Join(cfg.Dir, RequestLogFile), line)
		}
		return err
	}
}

// RequestLogger logs JSON to stdout and <dir>/requests.log.
func RequestLogger(dir string) fiber.Handler {
	return LoggingMiddleware(DefaultLogConfig(dir))
}

// ErrorLogger writes failed requests (status >= 400) to errors.log as JSON.
func ErrorLogger(dir string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil || c.Response().StatusCode() >= 400 {
			raw, _ := json.Marshal(collect(c, start, err))
			logToFile(filepath.Join(dir, ErrorLogFile), string(raw))
		}
		return err
	}
}

func collect(c *fiber.Ctx, start time.Time, err error) LogData {
	data := LogData{
		Timestamp:     start,
		Method:        c.Method(),
		Path:          c.Path(),
		URL:           c.OriginalURL(),
		Status:        c.Response().StatusCode(),
		Latency:       time.Since(start),
		IP:            c.IP(),
		UserAgent:     c.Get(fiber.HeaderUserAgent),
		ContentLength: int64(len(c.Response().Body())),
	}
	if id, ok := c.Locals("requestid").(string); ok {
		data.RequestID = id
	}
	if actor := ActorFrom(c); actor != nil {
		data.UserID = actor.UserID
		data.Username = actor.Username
	}
	if err != nil {
		data.Error = err.Error()
	}
	return data
}

func formatTextLog(data LogData) string {
	user := ""
	if data.Username != "" {
		user = fmt.Sprintf(" user:%d(%s)", data.UserID, data.Username)
	}
	return fmt.Sprintf(
		"[%s] %s %s %s %d %s %s%s",
		data.Timestamp.Format("2006-01-02 15:04:05"),
		data.Method,
		data.Path,
		statusMark(data.Status),
		data.Status,
		data.Latency,
		data.IP,
		user,
	)
}

func statusMark(status int) string {
	switch {
	case status >= 500:
		return "❌"
	case status >= 400:
		return "⚠️"
	case status >= 300:
		return "🔄"
	default:
		return "✅"
	}
}

func logToFile(filePath, message string) {
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Error opening log file: %v\n", err)
		return
	}
	defer file.Close()

	if len(message) > 0 && message[len(message)-1] != '\n' {
		message += "\n"
	}
	if _, err := file.WriteString(message); err != nil {
		log.Printf("Error writing to log file: %v\n", err)
	}
}
