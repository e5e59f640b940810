package config

import (
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/viper"
)

type Config struct {
	MinIOBucket  string        `yaml:"minio_bucket"`
	App          App           `yaml:"app"`
	DB           *sql.DB       `yaml:"db"`
	Queue        *RabbitMQ     `yaml:"rabbitmq"`
	Storage      *minio.Client `yaml:"storage"`
	Server       Server        `yaml:"server"`
	Conferencing Conferencing  `yaml:"conferencing"`
	Email        Email         `yaml:"email"`
	// TokenSecret derives the key that encrypts conferencing tokens at rest.
	TokenSecret string `yaml:"token_secret"`
}

type App struct {
	Environment string `yaml:"environment"`
	Host        string `yaml:"host"`
	Protocol    string `yaml:"protocol"`
}

type Server struct {
	HttpPort string `yaml:"http_port"`
	Workers  int    `yaml:"workers"`
}

type RabbitMQ struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Pass         string `json:"pass"`
	ExchangeName string `json:"exchange_name"`
	Kind         string `json:"kind"`
}

type Conferencing struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	AuthURL      string `yaml:"auth_url"`
	TokenURL     string `yaml:"token_url"`
	APIBaseURL   string `yaml:"api_base_url"`
}

type Email struct {
	SendgridKey string `yaml:"sendgrid_key"`
	FromName    string `yaml:"from_name"`
	FromEmail   string `yaml:"from_email"`
	// WorthyTypes lists the notification types that escalate to email.
	WorthyTypes []string `yaml:"worthy_types"`
}

func Load(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.SetDefault("email.worthy_types", []string{
		"PROVA_EM_2_HORAS",
		"AULA_CANCELADA",
		"INSTRUTOR_ATRIBUIDO",
		"TURMA_INICIADA",
		"TURMA_ENCERRADA",
	})
	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", viper.GetString("postgresql_host"))
	if err != nil {
		return nil, err
	}

	rabbitmq := &RabbitMQ{
		Host:         viper.GetString("rabbitmq_host"),
		Port:         viper.GetInt("rabbitmq_port"),
		User:         viper.GetString("rabbitmq_user"),
		Pass:         viper.GetString("rabbitmq_pass"),
		ExchangeName: viper.GetString("rabbitmq_exchange"),
		Kind:         viper.GetString("rabbitmq_kind"),
	}

	minioClient, err := minio.New(viper.GetString("minio.url"), &minio.Options{
		Creds:  credentials.NewStaticV4(viper.GetString("minio.access_id"), viper.GetString("minio.secret_access_key"), ""),
		Secure: false,
	})
	if err != nil {
		return nil, err
	}

	return &Config{
		MinIOBucket: viper.GetString("minio.bucket"),
		App: App{
			Environment: viper.GetString("app.environment"),
			Host:        viper.GetString("app.host"),
			Protocol:    viper.GetString("app.protocol"),
		},
		Server: Server{
			HttpPort: viper.GetString("server.port"),
			Workers:  viper.GetInt("server.workers"),
		},
		Conferencing: Conferencing{
			ClientID:     viper.GetString("conferencing.client_id"),
			ClientSecret: viper.GetString("conferencing.client_secret"),
			AuthURL:      viper.GetString("conferencing.auth_url"),
			TokenURL:     viper.GetString("conferencing.token_url"),
			APIBaseURL:   viper.GetString("conferencing.api_base_url"),
		},
		Email: Email{
			SendgridKey: viper.GetString("email.sendgrid_key"),
			FromName:    viper.GetString("email.from_name"),
			FromEmail:   viper.GetString("email.from_email"),
			WorthyTypes: viper.GetStringSlice("email.worthy_types"),
		},
		TokenSecret: viper.GetString("token_secret"),
		DB:          db,
		Queue:       rabbitmq,
		Storage:     minioClient,
	}, nil
}
