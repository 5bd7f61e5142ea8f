// Package utils 提供通用工具函数
package utils

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateReservationNo 生成预订号
// 格式: 前缀 + 年月日时分秒 + 8位十六进制随机串
func GenerateReservationNo(prefix string) string {
	timestamp := time.Now().Format("20060102150405")
	random := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s%s%s", prefix, timestamp, random)
}

// StringPtr 返回字符串指针
func StringPtr(s string) *string {
	return &s
}

// TimePtr 返回时间指针
func TimePtr(t time.Time) *time.Time {
	return &t
}

// SafeString 安全获取字符串值
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Contains 检查切片是否包含元素
func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// Unique 去重
func Unique[T comparable](slice []T) []T {
	seen := make(map[T]bool)
	result := make([]T, 0, len(slice))
	for _, v := range slice {
		if !seen[v] {
			seen[v] = true
			result = append(result, v)
		}
	}
	return result
}

// SortedUniqueInts 去重并升序排列
func SortedUniqueInts(slice []int) []int {
	result := Unique(slice)
	sort.Ints(result)
	return result
}

// ParseIntList 解析逗号分隔的整数列表，如 "101,102,201"
func ParseIntList(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	result := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", p, err)
		}
		result = append(result, n)
	}
	return result, nil
}
