package Controllers

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"TaskLedger/middleware"

	"github.com/gofiber/fiber/v2"
)

// LogGroup represents a group of logs by method and path
type LogGroup struct {
	Path        string               `json:"path"`
	Method      string               `json:"method"`
	Count       int                  `json:"count"`
	AvgLatency  float64              `json:"avg_latency_ms"`
	MinLatency  float64              `json:"min_latency_ms"`
	MaxLatency  float64              `json:"max_latency_ms"`
	SuccessRate float64              `json:"success_rate"`
	Logs        []middleware.LogData `json:"logs"`
}

type LogsResponse struct {
	Groups      []LogGroup `json:"groups"`
	TotalLogs   int        `json:"total_logs"`
	TotalGroups int        `json:"total_groups"`
	Page        int        `json:"page"`
	PageSize    int        `json:"page_size"`
	TotalPages  int        `json:"total_pages"`
	DateFrom    time.Time  `json:"date_from"`
	DateTo      time.Time  `json:"date_to"`
}

// GetLogs retrieves request logs with pagination, date filtering, and grouping
func (h *Handler) GetLogs(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 1000 {
		pageSize = 50
	}

	dateFrom, dateTo, err := logRange(c.Query("date_from"), c.Query("date_to"), time.Now())
	if err != nil {
		return badRequest(c, err.Error())
	}

	logs, err := readLogs(filepath.Join(h.LogDir, middleware.RequestLogFile), dateFrom, dateTo)
	if err != nil {
		log.Printf("Error reading logs: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read logs"})
	}
	logs = filterLogs(logs, c.Query("path"), c.Query("method"), c.Query("status"))
	groups := groupLogs(logs)

	totalGroups := len(groups)
	start := (page - 1) * pageSize
	if start > totalGroups {
		start = totalGroups
	}
	end := start + pageSize
	if end > totalGroups {
		end = totalGroups
	}

	return c.JSON(LogsResponse{
		Groups:      groups[start:end],
		TotalLogs:   len(logs),
		TotalGroups: totalGroups,
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  (totalGroups + pageSize - 1) / pageSize,
		DateFrom:    dateFrom,
		DateTo:      dateTo,
	})
}

// GetLogStats returns request totals, latency and top paths for the range
func (h *Handler) GetLogStats(c *fiber.Ctx) error {
	dateFrom, dateTo, err := logRange(c.Query("date_from"), c.Query("date_to"), time.Now())
	if err != nil {
		return badRequest(c, err.Error())
	}
	logs, err := readLogs(filepath.Join(h.LogDir, middleware.RequestLogFile), dateFrom, dateTo)
	if err != nil {
		log.Printf("Error reading logs: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read logs"})
	}

	var successful, failed int
	var total time.Duration
	statusStats := make(map[int]int)
	pathStats := make(map[string]int)
	for _, entry := range logs {
		switch {
		case entry.Status >= 200 && entry.Status < 300:
			successful++
		case entry.Status >= 400:
			failed++
		}
		total += entry.Latency
		statusStats[entry.Status]++
		pathStats[entry.Method+" "+entry.Path]++
	}

	type pathCount struct {
		Path  string `json:"path"`
		Count int    `json:"count"`
	}
	topPaths := make([]pathCount, 0, len(pathStats))
	for path, count := range pathStats {
		topPaths = append(topPaths, pathCount{path, count})
	}
	sort.Slice(topPaths, func(i, j int) bool {
		if topPaths[i].Count != topPaths[j].Count {
			return topPaths[i].Count > topPaths[j].Count
		}
		return topPaths[i].Path < topPaths[j].Path
	})
	if len(topPaths) > 10 {
		topPaths = topPaths[:10]
	}

	avg, rate := 0.0, 0.0
	if len(logs) > 0 {
		avg = float64((total / time.Duration(len(logs))).Microseconds()) / 1000.0
		rate = float64(successful) / float64(len(logs)) * 100
	}
	return c.JSON(fiber.Map{
		"total_requests":      len(logs),
		"successful_requests": successful,
		"error_requests":      failed,
		"success_rate":        rate,
		"avg_latency_ms":      avg,
		"status_stats":        statusStats,
		"top_paths":           topPaths,
		"date_from":           dateFrom,
		"date_to":             dateTo,
	})
}

// logRange defaults to today when neither bound is given.
func logRange(fromStr, toStr string, now time.Time) (time.Time, time.Time, error) {
	startOfDay := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
	if fromStr == "" && toStr == "" {
		from := startOfDay(now)
		return from, from.AddDate(0, 0, 1), nil
	}

	from := time.Unix(0, 0)
	to := now
	if fromStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", fromStr, now.Location())
		if err != nil {
			return from, to, errors.New("Invalid date_from format. Use YYYY-MM-DD")
		}
		from = parsed
	}
	if toStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", toStr, now.Location())
		if err != nil {
			return from, to, errors.New("Invalid date_to format. Use YYYY-MM-DD")
		}
		to = parsed.AddDate(0, 0, 1)
	}
	return from, to, nil
}

// readLogs keeps entries with from <= timestamp < to. A missing file is empty.
func readLogs(path string, from, to time.Time) ([]middleware.LogData, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var logs []middleware.LogData
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry middleware.LogData
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if !entry.Timestamp.Before(from) && entry.Timestamp.Before(to) {
			logs = append(logs, entry)
		}
	}
	return logs, scanner.Err()
}

func filterLogs(logs []middleware.LogData, path, method, status string) []middleware.LogData {
	wantStatus, statusErr := strconv.Atoi(status)
	filtered := make([]middleware.LogData, 0, len(logs))
	for _, entry := range logs {
		if path != "" && !strings.Contains(strings.ToLower(entry.Path), strings.ToLower(path)) {
			continue
		}
		if method != "" && !strings.EqualFold(entry.Method, method) {
			continue
		}
		if status != "" && statusErr == nil && entry.Status != wantStatus {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered
}

// groupLogs groups by method and path, busiest first.
func groupLogs(logs []middleware.LogData) []LogGroup {
	index := make(map[string]int)
	groups := []LogGroup{}
	for _, entry := range logs {
		key := fmt.Sprintf("%s %s", entry.Method, entry.Path)
		latency := float64(entry.Latency.Microseconds()) / 1000.0
		i, ok := index[key]
		if !ok {
			groups = append(groups, LogGroup{Path: entry.Path, Method: entry.Method, MinLatency: latency})
			i = len(groups) - 1
			index[key] = i
		}
		group := &groups[i]
		group.Count++
		group.Logs = append(group.Logs, entry)
		group.AvgLatency += (latency - group.AvgLatency) / float64(group.Count)
		if latency < group.MinLatency {
			group.MinLatency = latency
		}
		if latency > group.MaxLatency {
			group.MaxLatency = latency
		}
		success := 0.0
		if entry.Status >= 200 && entry.Status < 300 {
			success = 1.0
		}
		group.SuccessRate += (success - group.SuccessRate) / float64(group.Count)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Count > groups[j].Count
	})
	return groups
}
