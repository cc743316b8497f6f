// Команда client — консольный клиент для сервиса поиска по номерам.
// Отправляет список номеров на сервер и печатает результат.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
)

type lookupRequest struct {
	Phones []string `json:"phones"`
}

type lookupResponse struct {
	Success bool `json:"success"`
	Results []struct {
		Phone string `json:"phone"`
		User  *struct {
			ID        int64  `json:"id"`
			Username  string `json:"username,omitempty"`
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			Bot       bool   `json:"bot"`
		} `json:"user"`
		Photos []struct {
			File string `json:"file,omitempty"`
			URL  string `json:"url,omitempty"`
			MIME string `json:"mime"`
		} `json:"photos"`
		Error string `json:"error,omitempty"`
	} `json:"results"`
	Error string `json:"error,omitempty"`
}

func main() {
	var serverAddr string
	flag.StringVar(&serverAddr, "server", "http://localhost:8080", "Server address")
	flag.Parse()

	phones := flag.Args()
	if len(phones) == 0 {
		log.Fatal("At least one phone number is required. Usage: client [flags] <phone1> <phone2> ...")
	}

	body, err := json.Marshal(lookupRequest{Phones: phones})
	if err != nil {
		log.Fatalf("Не удалось сериализовать запрос: %v", err)
	}

	resp, err := http.Post(serverAddr+"/api/v1/lookup", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("Не удалось отправить запрос: %v", err)
	}
	defer resp.Body.Close()

	var result lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Fatalf("Не удалось декодировать ответ: %v", err)
	}

	if !result.Success {
		fmt.Printf("Сервер вернул ошибку (%d): %s\n", resp.StatusCode, result.Error)
		os.Exit(1)
	}

	for _, r := range result.Results {
		if r.Error != "" {
			fmt.Printf("%-16s ошибка: %s\n", r.Phone, r.Error)
			continue
		}
		if r.User == nil {
			fmt.Printf("%-16s не найден\n", r.Phone)
			continue
		}

		name := r.User.FirstName
		if r.User.LastName != "" {
			name += " " + r.User.LastName
		}
		line := fmt.Sprintf("%-16s id=%d %s", r.Phone, r.User.ID, name)
		if r.User.Username != "" {
			line += " @" + r.User.Username
		}
		if r.User.Bot {
			line += " (бот)"
		}
		if len(r.Photos) > 0 {
			if r.Photos[0].URL != "" {
				line += " фото: " + r.Photos[0].URL
			} else {
				line += " фото: есть"
			}
		}
		fmt.Println(line)
	}
}
