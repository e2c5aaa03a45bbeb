// Package main prints a bcrypt hash for ADMIN_PASSWORD_HASH. The password is read from stdin.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/brightpath-tutoring/backend/pkg/utils"
)

func main() {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		logger.Fatal("read password", zap.Error(err))
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		logger.Fatal("empty password")
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		logger.Fatal("hash password", zap.Error(err))
	}
	fmt.Println(hash)
}
