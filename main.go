package main

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/pflag"

	"petbots.fbbdev.it/tilebot/log"
	"petbots.fbbdev.it/tilebot/tilegrid"
)

// Telegram rejects messages longer than this.
const maxMessageLen = 4096

var publicHost string
var imgServiceAddr string
var imgPath string
var configDir string
var cacheDir string

func init() {
	publicHost = os.Getenv("TILEBOT_PUBLIC_HOST")
	if publicHost == "" {
		publicHost = "localhost:3000"
	}

	imgServiceAddr = os.Getenv("TILEBOT_IMG_SERVICE_ADDR")
	if imgServiceAddr == "" {
		imgServiceAddr = "localhost:3000"
	}

	imgPath = os.Getenv("TILEBOT_IMG_PATH")
	if imgPath == "" {
		imgPath = "/tiles.png"
	}

	configDir = os.Getenv("TILEBOT_CONFIG_DIR")
	cacheDir = os.Getenv("TILEBOT_CACHE_DIR")
	if cacheDir == "" {
		cacheDir = os.TempDir() + "/tilebot"
	}
}

func sendMessage(bot *tgbotapi.BotAPI, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := bot.Send(msg); err != nil {
		log.ErrorLogger.Print("tgbotapi: ", err)
		log.WarningLogger.Printf("could not send message (chat_id=%v)", chatID)
	}
}

const helpMessage = `I draw your text with image tiles or emojis.

/render [Tileset] [Text]
replies with a picture of [Text] drawn with the [Tileset] tiles.

/text [Tileset] [Text]
replies with a message spelling [Text] using the emojis this chat has registered for [Tileset].

/tilesets
lists the tilesets I know about.

[Text] can use letters, digits and basic punctuation. Maximum length is %d characters.

You can also invoke me inline in any chat:
@tilebot [Tileset] [Text]

When everything works, a picture will pop up which you can post.
When the parameters are wrong, nothing will pop up.

Try it now, send me this message:
/render blocks hello %s`

func handleHelp(bot *tgbotapi.BotAPI, update tgbotapi.Update) {
	username := strings.ToLower(update.SentFrom().UserName)

	msg := tgbotapi.NewMessage(
		update.Message.Chat.ID,
		fmt.Sprintf(helpMessage, tilegrid.MaxChars, username),
	)

	msg.DisableWebPagePreview = true

	if _, err := bot.Send(msg); err != nil {
		log.ErrorLogger.Print("tgbotapi: ", err)
		log.WarningLogger.Printf("could not send help message (update_id=%v, chat_id=%v)", update.UpdateID, msg.ChatID)
	}
}

//lint:ignore ST1005 the string must be sent as a chat message
var errNotEnoughParams = errors.New("Some parameters are missing! I need [Tileset] [Text]. Try asking for /help if you don't know how to invoke me.")

//lint:ignore ST1005 the string must be sent as a chat message
var errTextTooLong = fmt.Errorf("[Text] is too long. The limit is %v characters.", tilegrid.MaxChars)

// splitQuery separates a "[Tileset] [Text]" command argument string.
func splitQuery(query string) (tileset, text string, err error) {
	re := regexp.MustCompile(`^\s*(\S+)\s+(.+)$`)
	match := re.FindStringSubmatch(query)

	if match == nil || match[2] == "" {
		return "", "", errNotEnoughParams
	}

	if len(match[2]) > tilegrid.MaxChars {
		return "", "", errTextTooLong
	}

	return match[1], match[2], nil
}

// imageURL builds the public URL under which the image service renders the
// request, so Telegram fetches the picture instead of us uploading it.
func imageURL(tileset, text string) string {
	params := url.Values{}
	params.Set("tileset", tileset)
	params.Set("text", text)

	imgURLInfo := url.URL{
		Scheme:   "https",
		Host:     publicHost,
		Path:     imgPath,
		RawQuery: params.Encode(),
	}

	return imgURLInfo.String()
}

// errorReply maps every rendering error kind to a chat reply. Tileset
// configuration defects are logged as warnings so an operator can act on
// them; bad user input is just answered.
func errorReply(err error) string {
	var charErr *tilegrid.CharError
	switch {
	case errors.As(err, &charErr):
		return fmt.Sprintf("The character %q is not supported by the %s font.", charErr.Char, charErr.Font)
	case errors.Is(err, tilegrid.ErrUnsupportedCharacter):
		return "There's nothing I can draw in that message."
	case errors.Is(err, tilegrid.ErrWrongTilesetKind):
		return "That tileset can't produce this kind of output. Try the other command or pick another tileset from /tilesets."
	case errors.Is(err, tilegrid.ErrAssetNotFound):
		return "We can't seem to find that tileset or font."
	case errors.Is(err, tilegrid.ErrUnmappedTile):
		log.WarningLogger.Print("tileset configuration incomplete: ", err)
		return "We can't seem to find the required emojis. Sorry for the inconvenience."
	case errors.Is(err, tilegrid.ErrMalformedAsset):
		log.WarningLogger.Print("malformed asset: ", err)
		return "That tileset or font looks broken on our side. Sorry for the inconvenience."
	case errors.Is(err, tilegrid.ErrAssetFetchFailed):
		return "We couldn't fetch the tile images right now. Please try again later."
	default:
		log.ErrorLogger.Print("render: ", err)
		return "Something went wrong while rendering. Please try again later."
	}
}

func handleText(bot *tgbotapi.BotAPI, service *tilegrid.Service, update tgbotapi.Update) {
	query := update.Message.CommandArguments()
	if query == "" {
		sendMessage(bot, update.Message.Chat.ID, "Some parameters are missing:\n/text [Tileset] [Text]\n\nJust ask if you need some /help")
		return
	}

	tileset, text, err := splitQuery(query)
	if err != nil {
		sendMessage(bot, update.Message.Chat.ID, err.Error())
		return
	}

	contextID := strconv.FormatInt(update.Message.Chat.ID, 10)
	art, err := service.Render(context.Background(), tileset, contextID, text, tilegrid.ModeText)
	if err != nil {
		sendMessage(bot, update.Message.Chat.ID, errorReply(err))
		return
	}

	reply := strings.Join(art.Lines, "\n")
	if len(reply) > maxMessageLen {
		sendMessage(bot, update.Message.Chat.ID, "That message is far too long to be sent using emojis.")
		return
	}

	sendMessage(bot, update.Message.Chat.ID, reply)
}

func handleRender(bot *tgbotapi.BotAPI, update tgbotapi.Update) {
	query := update.Message.CommandArguments()
	if query == "" {
		sendMessage(bot, update.Message.Chat.ID, "Some parameters are missing:\n/render [Tileset] [Text]\n\nJust ask if you need some /help")
		return
	}

	tileset, text, err := splitQuery(query)
	if err != nil {
		sendMessage(bot, update.Message.Chat.ID, err.Error())
		return
	}

	msg := tgbotapi.NewPhoto(update.Message.Chat.ID, tgbotapi.FileURL(imageURL(tileset, text)))

	if _, err := bot.Send(msg); err != nil {
		log.ErrorLogger.Print("tgbotapi: ", err)
		log.WarningLogger.Printf("could not send rendered image (update_id=%v, chat_id=%v)", update.UpdateID, msg.ChatID)
	}
}

func handleTilesets(bot *tgbotapi.BotAPI, service *tilegrid.Service, update tgbotapi.Update) {
	names, err := service.Tilesets.Tilesets()
	if err != nil {
		log.ErrorLogger.Print("tilesets: ", err)
		sendMessage(bot, update.Message.Chat.ID, "Something went wrong while listing tilesets.")
		return
	}

	sendMessage(bot, update.Message.Chat.ID, "Available tilesets:\n"+strings.Join(names, "\n"))
}

func handleInlineQuery(bot *tgbotapi.BotAPI, update tgbotapi.Update) {
	tileset, text, err := splitQuery(update.InlineQuery.Query)
	if err != nil {
		return
	}

	imgURL := imageURL(tileset, text)

	result := tgbotapi.NewInlineQueryResultPhotoWithThumb(fmt.Sprintf("%x", md5.Sum([]byte(imgURL))), imgURL, imgURL)

	answer := tgbotapi.InlineConfig{
		InlineQueryID: update.InlineQuery.ID,
		Results:       []interface{}{result},
		CacheTime:     1,
		IsPersonal:    true,
	}

	if _, err := bot.Request(answer); err != nil {
		log.ErrorLogger.Print("tgbotapi: ", err)
		log.WarningLogger.Printf("could not send inline query answer (update_id=%v, query_id=%v)", update.UpdateID, answer.InlineQueryID)
	}
}

func main() {
	pflag.StringVar(&publicHost, "public-host", publicHost, "public host serving rendered images")
	pflag.StringVar(&imgServiceAddr, "listen", imgServiceAddr, "listen address of the image service")
	pflag.StringVar(&imgPath, "img-path", imgPath, "HTTP path of the image endpoint")
	pflag.StringVar(&configDir, "config-dir", configDir, "directory with tileset overrides and per-chat emoji mappings")
	pflag.StringVar(&cacheDir, "cache-dir", cacheDir, "directory for downloaded tile images")
	pflag.Parse()

	tgbotapi.SetLogger(log.InfoLogger)

	bot, err := tgbotapi.NewBotAPI(os.Getenv("TILEBOT_TOKEN"))
	if err != nil {
		log.ErrorLogger.Print("tgbotapi: ", err)
		log.FatalLogger.Fatal("could not start bot")
	}

	bot.Debug = false
	log.InfoLogger.Printf("authorized on account %s", bot.Self.UserName)

	service := &tilegrid.Service{
		Tilesets: tilegrid.NewResolver(configDir, cacheDir),
		Fetcher:  &tilegrid.Fetcher{},
	}
	if configDir != "" {
		service.Fonts = os.DirFS(filepath.Join(configDir, "fonts"))
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := bot.GetUpdatesChan(updateConfig)

	// start http image service
	go func() {
		http.Handle(imgPath, &tilegrid.Handler{Service: service})

		err := http.ListenAndServe(imgServiceAddr, nil)
		if err != http.ErrServerClosed {
			log.ErrorLogger.Print("http: ", err)
			log.FatalLogger.Fatal("http server stopped")
		}
	}()

	for update := range updates {
		if update.Message != nil && update.Message.IsCommand() {
			switch update.Message.Command() {
			case "start", "help":
				go handleHelp(bot, update)
			case "text":
				go handleText(bot, service, update)
			case "render":
				go handleRender(bot, update)
			case "tilesets":
				go handleTilesets(bot, service, update)
			default:
				go sendMessage(bot, update.Message.Chat.ID, "I don't know that command")
			}
		} else if update.InlineQuery != nil {
			go handleInlineQuery(bot, update)
		}
	}

	os.Exit(0)
}
