package conf

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// default allocation
var (
	Network        = "mainnet"
	ServerAddr     = ":3000"
	MysqlDsn       = "root:123456@tcp(127.0.0.1:3306)/marketsync"
	ResetDB        = false
	IpfsGateway    = "https://ipfs.pasarprotocol.io/ipfs/"
	MetadataUA     = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/107.0.0.0 Safari/537.36"
	BurnAddress    = "0x0000000000000000000000000000000000000000"
	MetadataMaxTry = 3
	PriceApi       = "https://api.coingecko.com/api/v3/simple/price"
)

// scanner and retry queue tuning, overridable from env
var (
	TokenStep         uint64 = 2000                    //backfill window for token transfer streams
	TokenStepInterval        = 2000 * time.Millisecond //pause between token backfill windows
	RegistryStep      uint64 = 2                       //backfill window for low-traffic registries
	RegistryInterval         = 100 * time.Millisecond  //pause between registry backfill windows
	CallTimeout              = 30 * time.Second        //bound on every outbound node call
	QueueDelay               = time.Second             //base delay before a retry job runs
	QueueFactor              = 2.0                     //backoff multiplier per attempt
	QueueMaxAttempts         = 20                      //attempts before a job is dead-lettered
	QueueWorkers             = 4                       //concurrent retry job executors
	QueuePollInterval        = time.Second             //how often due jobs are scanned
)

func init() {
	// set log printout to stdout instead of stderr
	log.SetOutput(os.Stdout)

	// read configuration to override default value
	setConf()

	// check configuration
	if Contracts[Network] == nil {
		panic("unsupported network: " + Network)
	}
	if QueueMaxAttempts < 1 {
		panic("conf.QueueMaxAttempts < 1")
	}
	if QueueFactor < 1 {
		panic("conf.QueueFactor < 1")
	}
}

func setConf() {
	err := godotenv.Load("marketsync.env")
	if err != nil {
		log.Println("Failed to load environment variables from .env file,", err)
	}

	if network := os.Getenv("NETWORK"); network != "" {
		Network = network
	}
	if serverAddr := os.Getenv("SERVER_ADDR"); serverAddr != "" {
		ServerAddr = serverAddr
	}
	if mysqlDsn := os.Getenv("MYSQL_DSN"); mysqlDsn != "" {
		MysqlDsn = mysqlDsn
	}
	if resetDB := os.Getenv("RESET_DB"); resetDB != "" {
		ResetDB = resetDB == "true"
	}
	if ipfsGateway := os.Getenv("IPFS_GATEWAY"); ipfsGateway != "" {
		IpfsGateway = ipfsGateway
	}
	if burnAddress := os.Getenv("BURN_ADDRESS"); burnAddress != "" {
		BurnAddress = burnAddress
	}
	if priceApi := os.Getenv("PRICE_API"); priceApi != "" {
		PriceApi = priceApi
	}
	TokenStep = envUint("TOKEN_STEP", TokenStep)
	RegistryStep = envUint("REGISTRY_STEP", RegistryStep)
	TokenStepInterval = envDuration("TOKEN_STEP_INTERVAL", TokenStepInterval)
	RegistryInterval = envDuration("REGISTRY_STEP_INTERVAL", RegistryInterval)
	CallTimeout = envDuration("CALL_TIMEOUT", CallTimeout)
	QueueDelay = envDuration("QUEUE_DELAY", QueueDelay)
	QueuePollInterval = envDuration("QUEUE_POLL_INTERVAL", QueuePollInterval)
	QueueMaxAttempts = envInt("QUEUE_MAX_ATTEMPTS", QueueMaxAttempts)
	QueueWorkers = envInt("QUEUE_WORKERS", QueueWorkers)
	if factor := os.Getenv("QUEUE_FACTOR"); factor != "" {
		QueueFactor, err = strconv.ParseFloat(factor, 64)
		if err != nil {
			panic(err)
		}
	}
}

func envUint(key string, def uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseUint(value, 0, 64)
		if err != nil {
			panic(err)
		}
		return parsed
	}
	return def
}

func envInt(key string, def int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			panic(err)
		}
		return parsed
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			panic(err)
		}
		return parsed
	}
	return def
}
